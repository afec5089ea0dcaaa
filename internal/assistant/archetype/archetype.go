// Package archetype holds the canonical rider archetype taxonomy and the one
// shared confidence ranker. Every consumer that turns a score vector into a
// decision or display goes through Rank; there is deliberately no second copy
// of the normalize/sort logic anywhere in the repo.
package archetype

import (
	"math"
	"sort"
)

// Keys is the fixed, ordered canonical archetype set. The order doubles as the
// tie-break order in Rank, so it must never be reordered casually.
var Keys = []string{"commuter", "tourer", "adventurer", "racer", "collector"}

// DefaultConfidenceThreshold is the margin a winner needs over the runner-up
// for the decision to snap.
const DefaultConfidenceThreshold = 0.08

// Valid reports whether name is a canonical archetype key.
func Valid(name string) bool {
	for _, k := range Keys {
		if k == name {
			return true
		}
	}
	return false
}

// Metrics is the outcome of ranking one score vector.
// Winner and RunnerUp are empty when the vector has no usable entries.
type Metrics struct {
	Winner   string
	RunnerUp string
	Margin   float64
	Snapped  bool
}

// Rank orders the canonical keys by score and computes the winner margin.
// Missing and non-finite scores read as zero. Exact ties resolve to the key
// that appears earlier in Keys, never to input-map iteration order.
func Rank(vector map[string]float64, threshold float64) Metrics {
	type ranked struct {
		key   string
		score float64
		pos   int
	}
	entries := make([]ranked, 0, len(Keys))
	for i, k := range Keys {
		s := vector[k]
		if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
			s = 0
		}
		entries = append(entries, ranked{key: k, score: s, pos: i})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].pos < entries[j].pos
	})

	nonZero := 0
	for _, e := range entries {
		if e.score > 0 {
			nonZero++
		}
	}

	m := Metrics{}
	switch {
	case nonZero == 0:
		m.Margin = 0
	case nonZero == 1:
		m.Winner = entries[0].key
		m.Margin = entries[0].score
	default:
		m.Winner = entries[0].key
		m.RunnerUp = entries[1].key
		m.Margin = entries[0].score - entries[1].score
	}
	m.Snapped = m.Winner != "" && m.Margin >= threshold
	return m
}

// Neutral returns the uniform breakdown used when scoring is bypassed.
func Neutral() map[string]float64 {
	out := make(map[string]float64, len(Keys))
	for _, k := range Keys {
		out[k] = 1.0 / float64(len(Keys))
	}
	return out
}

// OneHot returns the breakdown for a pinned archetype.
func OneHot(key string) map[string]float64 {
	out := make(map[string]float64, len(Keys))
	for _, k := range Keys {
		out[k] = 0
	}
	if Valid(key) {
		out[key] = 1
	}
	return out
}

// Package infer is the default binding for the archetype collaborator: a
// keyword-signal scorer over the recent conversation with cross-turn
// smoothing. It runs in-process on the hot path, so it stays deliberately
// cheap — no model calls, just anchored pattern counts.
package infer

import (
	"context"
	"regexp"
	"strings"

	"waypoint/internal/assistant"
	"waypoint/internal/assistant/archetype"
)

// DefaultSmoothing is the weight given to the caller-supplied previous vector.
const DefaultSmoothing = 0.35

// recentTurns bounds how much history the scorer reads.
const recentTurns = 6

type signal struct {
	re   *regexp.Regexp
	name string
}

var signalTable = map[string][]signal{
	"commuter": {
		{regexp.MustCompile(`(?i)\bcommut(e|ing|er)\b`), "commute"},
		{regexp.MustCompile(`(?i)\b(city|urban|traffic|filtering)\b`), "city-riding"},
		{regexp.MustCompile(`(?i)\b(fuel\s+econom|mpg|daily\s+ride|to\s+work)\b`), "daily-use"},
	},
	"tourer": {
		{regexp.MustCompile(`(?i)\btour(ing|er)?\b`), "touring"},
		{regexp.MustCompile(`(?i)\b(luggage|panniers?|top\s+box|two.?up)\b`), "luggage"},
		{regexp.MustCompile(`(?i)\b(long\s+(trip|distance|haul)|cross.?country|road\s+trip)\b`), "long-distance"},
	},
	"adventurer": {
		{regexp.MustCompile(`(?i)\b(off.?road|trail|gravel|dirt|dual.?sport)\b`), "off-road"},
		{regexp.MustCompile(`(?i)\badventure\b`), "adventure"},
		{regexp.MustCompile(`(?i)\b(suspension\s+travel|skid\s+plate|knobb(y|ies))\b`), "terrain-gear"},
	},
	"racer": {
		{regexp.MustCompile(`(?i)\b(track\s*day|race|racing|lap\s+time)\b`), "track"},
		{regexp.MustCompile(`(?i)\b(horsepower|top\s+speed|quickshifter|slicks?)\b`), "performance"},
		{regexp.MustCompile(`(?i)\b(sport\s*bike|supersport|cornering)\b`), "sport"},
	},
	"collector": {
		{regexp.MustCompile(`(?i)\b(vintage|classic|heritage|retro)\b`), "heritage"},
		{regexp.MustCompile(`(?i)\b(collect(or|ion|ing)?|limited\s+edition|anniversary)\b`), "collecting"},
		{regexp.MustCompile(`(?i)\b(restor(e|ation|ing)|original\s+paint|numbered)\b`), "restoration"},
	},
}

// modeBias nudges the vector when the caller declared a mode: prospects skew
// toward discovery archetypes, owners toward practical ones.
var modeBias = map[string]map[string]float64{
	assistant.ModeProspect: {"racer": 0.05, "adventurer": 0.05},
	assistant.ModeOwner:    {"commuter": 0.05, "tourer": 0.05},
}

// Engine implements assistant.ArchetypeEngine.
type Engine struct {
	smoothing float64
}

// New creates an engine. smoothing <= 0 selects the default; it is clamped
// below 1 so fresh signals always carry weight.
func New(smoothing float64) *Engine {
	if smoothing <= 0 {
		smoothing = DefaultSmoothing
	}
	if smoothing >= 1 {
		smoothing = 0.9
	}
	return &Engine{smoothing: smoothing}
}

// Compute scores the recent user turns against the signal table, applies the
// mode bias, and blends with the previous vector when one was supplied.
func (e *Engine) Compute(_ context.Context, messages []assistant.ChatMessage, hints assistant.QueryHints, previous map[string]float64) (*assistant.ArchetypeResult, error) {
	text := recentUserText(messages)

	fresh := make(map[string]float64, len(archetype.Keys))
	var signals []string
	total := 0.0
	for _, key := range archetype.Keys {
		score := 0.0
		for _, s := range signalTable[key] {
			n := len(s.re.FindAllStringIndex(text, -1))
			if n > 0 {
				score += float64(n)
				signals = append(signals, s.name)
			}
		}
		fresh[key] = score
		total += score
	}
	if total > 0 {
		for k := range fresh {
			fresh[k] /= total
		}
	}
	for k, boost := range modeBias[hints.Mode] {
		fresh[k] += boost
	}

	vector := fresh
	if len(previous) > 0 {
		vector = make(map[string]float64, len(archetype.Keys))
		for _, k := range archetype.Keys {
			vector[k] = (1-e.smoothing)*fresh[k] + e.smoothing*previous[k]
		}
	}

	metrics := archetype.Rank(vector, archetype.DefaultConfidenceThreshold)
	primary := ""
	if metrics.Snapped {
		primary = metrics.Winner
	}
	return &assistant.ArchetypeResult{
		Primary:     primary,
		Vector:      vector,
		Reasoning:   reasoning(metrics, signals),
		SignalsUsed: signals,
	}, nil
}

func recentUserText(messages []assistant.ChatMessage) string {
	var parts []string
	seen := 0
	for i := len(messages) - 1; i >= 0 && seen < recentTurns; i-- {
		if messages[i].Role != assistant.RoleUser {
			continue
		}
		parts = append(parts, messages[i].Content)
		seen++
	}
	return strings.Join(parts, "\n")
}

func reasoning(m archetype.Metrics, signals []string) string {
	if m.Winner == "" {
		return "no archetype signals in recent turns"
	}
	if !m.Snapped {
		return "signals too mixed to snap to " + m.Winner
	}
	if len(signals) == 0 {
		return "carried over from previous turns"
	}
	return "matched " + strings.Join(signals, ", ")
}

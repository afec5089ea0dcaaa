package retrieval

import (
	"context"
	"sort"
	"strings"

	"waypoint/internal/assistant"
)

// StaticRetriever serves a small built-in reference set with word-overlap
// scoring. It stands in for the retrieval service in local development and
// tests; production deployments configure the HTTP client instead.
type StaticRetriever struct {
	chunks []assistant.RetrievedChunk
}

func NewStaticRetriever() *StaticRetriever {
	return &StaticRetriever{chunks: builtinChunks}
}

var builtinChunks = []assistant.RetrievedChunk{
	{
		ID:    "guide-urban-220",
		Title: "Urban 220 model guide",
		Content: "The Urban 220 is Meridian's city commuter: a 220cc single with a low " +
			"seat height, upright ergonomics, and a claimed 210 km range from its 11 L tank. " +
			"Standard fitment includes ABS, a USB-C charge port, and tubeless wheels.",
		Topic:     "models",
		Templates: []string{"spec-summary"},
	},
	{
		ID:    "guide-voyager-900",
		Title: "Voyager 900 touring guide",
		Content: "The Voyager 900 pairs a 900cc twin with a touring fairing, cruise " +
			"control, and factory pannier mounts. Two-up comfort and a 320 km range make it " +
			"the long-haul pick of the lineup.",
		Topic:     "models",
		Templates: []string{"spec-summary", "comparison"},
	},
	{
		ID:    "guide-ridge-450",
		Title: "Ridge 450 adventure guide",
		Content: "The Ridge 450 is the dual-sport in the range: 21-inch front wheel, " +
			"230 mm of suspension travel, switchable rear ABS, and a skid plate as standard.",
		Topic:     "models",
		Templates: []string{"spec-summary"},
	},
	{
		ID:    "owners-break-in",
		Title: "Break-in guidance",
		Content: "New Meridian engines use a 1,000 km break-in: keep revs below 6,000, " +
			"vary engine speed, and book the first service at the 1,000 km mark.",
		Topic:     "ownership",
		Templates: []string{"step-list"},
	},
	{
		ID:    "heritage-anniversary",
		Title: "Anniversary editions",
		Content: "Meridian marks milestone years with numbered anniversary editions. " +
			"Each carries unique paint, a numbered plaque, and a heritage logbook.",
		Topic:     "heritage",
		Templates: []string{"story"},
	},
}

// Fetch scores each built-in chunk by word overlap with the query and returns
// the top three, mirroring the service response shape.
func (s *StaticRetriever) Fetch(_ context.Context, query string, _ assistant.QueryHints) (*assistant.RetrievalResult, error) {
	words := queryWords(query)
	scored := make([]assistant.RetrievedChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		c.Score = overlapScore(words, c.Title+" "+c.Content)
		if c.Score > 0 {
			scored = append(scored, c)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > 3 {
		scored = scored[:3]
	}
	max := 0.0
	if len(scored) > 0 {
		max = scored[0].Score
	}
	return &assistant.RetrievalResult{
		Chunks:        scored,
		MaxScore:      max,
		RerankMetrics: map[string]any{"source": "static", "candidates": len(s.chunks)},
	}, nil
}

func queryWords(query string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?\"'")
		if len(w) < 3 {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlapScore(words map[string]struct{}, text string) float64 {
	if len(words) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for w := range words {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

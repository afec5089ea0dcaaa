package assistant

import "context"

// External collaborators consumed by the pipeline. The pipeline sequences and
// audits them; it never reimplements what they do.

// QueryHints is the assembled context handed to retrieval and inference.
type QueryHints struct {
	Mode      string
	ModelSlug string
	PageURL   string
	Archetype string
}

// RetrievalResult is the scored reference set for one query.
type RetrievalResult struct {
	Chunks        []RetrievedChunk
	MaxScore      float64
	RerankMetrics map[string]any
}

// Retrieval turns a query plus hints into scored reference chunks.
type Retrieval interface {
	Fetch(ctx context.Context, query string, hints QueryHints) (*RetrievalResult, error)
}

// ArchetypeResult is a weighted vector over the canonical archetype keys.
// The pipeline ranks it; it does not recompute it.
type ArchetypeResult struct {
	Primary     string
	Vector      map[string]float64
	Reasoning   string
	SignalsUsed []string
}

// ArchetypeEngine infers an archetype vector from conversation context,
// optionally smoothing against the caller-supplied previous vector.
type ArchetypeEngine interface {
	Compute(ctx context.Context, messages []ChatMessage, hints QueryHints, previous map[string]float64) (*ArchetypeResult, error)
}

// GenerationParams tunes one completion call.
type GenerationParams struct {
	Temperature float32
	MaxTokens   int
}

// GenerationResult is the final answer text plus usage metadata.
type GenerationResult struct {
	Text       string
	Usage      *TokenUsage
	ResponseID string
	RequestID  string
}

// Generation produces the answer. Implementations must fail distinguishably
// on connectivity errors (see UpstreamError) versus other failures.
type Generation interface {
	Complete(ctx context.Context, instructions string, messages []ChatMessage, params GenerationParams) (*GenerationResult, error)
}

// InteractionLogger records one processed interaction, best-effort. Record
// must never propagate a failure into the caller; implementations report
// their own errors to the operational log.
type InteractionLogger interface {
	Record(ctx context.Context, rec *Interaction)
}

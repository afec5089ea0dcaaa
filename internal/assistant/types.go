package assistant

import "time"

// Message roles retained after sanitization.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Declared modes a caller may hint at. Unknown values are treated as unset.
const (
	ModeProspect   = "prospect"
	ModeOwner      = "owner"
	ModeNavigation = "navigation"
)

// ChatMessage is one conversation turn. Ordering is significant.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RequestContext carries optional caller hints.
type RequestContext struct {
	PageURL           string             `json:"pageUrl,omitempty"`
	ModelSlug         string             `json:"modelSlug,omitempty"`
	Mode              string             `json:"mode,omitempty"`
	PreviousBreakdown map[string]float64 `json:"previousBreakdown,omitempty"`
	ArchetypeOverride string             `json:"archetypeOverride,omitempty"`
}

// Request is the POST /assistant body.
type Request struct {
	Messages  []ChatMessage   `json:"messages"`
	SessionID string          `json:"sessionId,omitempty"`
	Context   *RequestContext `json:"context,omitempty"`
}

// Guardrail statuses.
const (
	StatusOK            = "ok"
	StatusBlocked       = "blocked"
	StatusLowConfidence = "low_confidence"
)

type GuardrailDecision struct {
	Status string  `json:"status"`
	Reason *string `json:"reason"`
}

// RetrievedChunk is one scored reference returned by the retrieval collaborator.
type RetrievedChunk struct {
	ID        string   `json:"id"`
	Title     string   `json:"title,omitempty"`
	Content   string   `json:"content"`
	Topic     string   `json:"topic,omitempty"`
	Templates []string `json:"templates,omitempty"`
	Score     float64  `json:"score"`
}

// Citation is the client-facing projection of a retrieved chunk.
type Citation struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Score float64 `json:"score"`
}

// Envelope is the single response shape emitted on every processed path.
// Downstream consumers never branch on which pipeline state produced it.
type Envelope struct {
	Answer             string             `json:"answer"`
	Guardrail          GuardrailDecision  `json:"guardrail"`
	Citations          []Citation         `json:"citations"`
	Intents            []string           `json:"intents"`
	Topics             []string           `json:"topics"`
	Templates          []string           `json:"templates"`
	Similarity         float64            `json:"similarity"`
	Mode               string             `json:"mode"`
	Archetype          *string            `json:"archetype"`
	ArchetypeBreakdown map[string]float64 `json:"archetypeBreakdown"`
}

// TokenUsage is generation token metadata when the model path runs.
type TokenUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Interaction is the record handed to the interaction logger, exactly once
// per processed request.
type Interaction struct {
	ID         string             `json:"id"`
	SessionID  string             `json:"sessionId,omitempty"`
	ClientKey  string             `json:"clientKey,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	Mode       string             `json:"mode,omitempty"`
	Archetype  string             `json:"archetype,omitempty"`
	Status     string             `json:"status"`
	Reason     string             `json:"reason,omitempty"`
	Query      string             `json:"query"`
	Prompt     string             `json:"prompt,omitempty"`
	Answer     string             `json:"answer"`
	Intents    []string           `json:"intents,omitempty"`
	Chunks     []RetrievedChunk   `json:"chunks,omitempty"`
	Similarity float64            `json:"similarity"`
	Margin     float64            `json:"margin"`
	Snapped    bool               `json:"snapped"`
	Breakdown  map[string]float64 `json:"breakdown,omitempty"`
	Usage      *TokenUsage        `json:"usage,omitempty"`
	LatencyMs  int64              `json:"latencyMs"`
	Error      string             `json:"error,omitempty"`
}

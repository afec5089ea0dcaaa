package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"waypoint/internal/assistant/archetype"
	"waypoint/internal/assistant/intent"
	"waypoint/internal/assistant/ratelimit"
)

// LowConfidenceAnswer is the fixed fallback when retrieval cannot back an answer.
const LowConfidenceAnswer = "I'm not confident I have good material to answer that " +
	"well, and I'd rather not guess. Could you rephrase, or ask me about a specific " +
	"Meridian model or feature?"

// DefaultRetrievalThreshold is the minimum retrieval top score for generation.
const DefaultRetrievalThreshold = 0.55

// Config tunes the pipeline's decision thresholds.
type Config struct {
	MaxInputChars       int
	ConfidenceThreshold float64
	RetrievalThreshold  float64
}

func (c Config) withDefaults() Config {
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = DefaultMaxInputChars
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = archetype.DefaultConfidenceThreshold
	}
	if c.RetrievalThreshold <= 0 {
		c.RetrievalThreshold = DefaultRetrievalThreshold
	}
	return c
}

// Pipeline sequences admission, validation, intent detection, scoring,
// retrieval, and generation into exactly one response path per request.
// Every processed path (everything past validation) logs exactly once.
type Pipeline struct {
	cfg        Config
	guard      *OriginGuard
	limiter    *ratelimit.Limiter
	retrieval  Retrieval
	engine     ArchetypeEngine
	generation Generation
	logger     InteractionLogger
	now        func() time.Time
}

// New wires a pipeline. All collaborators are required; the logger may be nil
// only in tests that assert the non-logging paths.
func New(cfg Config, guard *OriginGuard, limiter *ratelimit.Limiter,
	retrieval Retrieval, engine ArchetypeEngine, generation Generation,
	logger InteractionLogger) *Pipeline {
	return &Pipeline{
		cfg:        cfg.withDefaults(),
		guard:      guard,
		limiter:    limiter,
		retrieval:  retrieval,
		engine:     engine,
		generation: generation,
		logger:     logger,
		now:        time.Now,
	}
}

// Input is one inbound request plus the transport-level facts the pipeline
// needs for admission.
type Input struct {
	Req       *Request
	Origin    string
	ClientKey string
}

// Process runs the state machine. A nil error always comes with an Envelope;
// a non-nil error is one of the taxonomy errors in errors.go and was produced
// before any answer existed (or by an upstream failure after logging).
func (p *Pipeline) Process(ctx context.Context, in Input) (*Envelope, error) {
	// Admission. Rejections here are not interactions and are never logged.
	if allowed, host := p.guard.Check(in.Origin); !allowed {
		return nil, &OriginRejectedError{Host: host}
	}
	if d := p.limiter.Admit(in.ClientKey); !d.OK {
		return nil, &RateLimitedError{RetryAfter: d.RetryAfter}
	}

	// Structural validation, also pre-log.
	if err := Validate(in.Req, p.cfg.MaxInputChars); err != nil {
		return nil, err
	}

	start := p.now()
	messages := Sanitize(in.Req.Messages)
	latest := LatestUserMessage(messages)

	hints := QueryHints{}
	var previous map[string]float64
	override := ""
	if c := in.Req.Context; c != nil {
		hints.Mode = NormalizeMode(c.Mode)
		hints.ModelSlug = c.ModelSlug
		hints.PageURL = c.PageURL
		previous = c.PreviousBreakdown
		if archetype.Valid(c.ArchetypeOverride) {
			override = c.ArchetypeOverride
		}
	}

	rec := &Interaction{
		ID:        uuid.NewString(),
		SessionID: in.Req.SessionID,
		ClientKey: in.ClientKey,
		CreatedAt: start,
		Mode:      hints.Mode,
		Query:     latest,
	}

	// Meta short-circuit: questions about the assistant itself.
	if tag, ok := intent.DetectMeta(latest); ok {
		env := p.envelope(MetaEnvelope(tag, hints.Mode))
		p.record(ctx, rec, env, start, nil)
		return env, nil
	}

	// Developer reset clears any sticky archetype state to neutral.
	if intent.DetectReset(latest) {
		env := p.envelope(Envelope{
			Answer:             intent.ResetAck,
			Intents:            []string{intent.TagArchetypeReset},
			Mode:               hints.Mode,
			ArchetypeBreakdown: archetype.Neutral(),
		})
		p.record(ctx, rec, env, start, nil)
		return env, nil
	}

	// Developer override pins the archetype for the rest of the turn.
	if name, ok := intent.DetectOverride(latest); ok {
		env := p.overrideEnvelope(name, hints.Mode)
		p.record(ctx, rec, env, start, nil)
		return env, nil
	}

	// Guardrail: first matching blocked topic wins; never accumulates reasons.
	if cat, ok := intent.DetectBlocked(latest); ok {
		reason := cat.Tag
		env := p.envelope(Envelope{
			Answer:             cat.Refusal,
			Guardrail:          GuardrailDecision{Status: StatusBlocked, Reason: &reason},
			Mode:               hints.Mode,
			ArchetypeBreakdown: archetype.Neutral(),
		})
		p.record(ctx, rec, env, start, nil)
		return env, nil
	}

	// Context assembly: fresh vector from the engine, ranked once.
	inferred, err := p.engine.Compute(ctx, messages, hints, previous)
	if err != nil {
		rec.Error = err.Error()
		p.record(ctx, rec, nil, start, nil)
		return nil, err
	}
	metrics := archetype.Rank(inferred.Vector, p.cfg.ConfidenceThreshold)
	effective := inferred.Primary
	if override != "" {
		effective = override
	}
	hints.Archetype = effective
	rec.Archetype = effective
	rec.Margin = metrics.Margin
	rec.Snapped = metrics.Snapped
	rec.Breakdown = inferred.Vector

	// Retrieval and the low-confidence fallback.
	retrieved, err := p.retrieval.Fetch(ctx, latest, hints)
	if err != nil {
		rec.Error = err.Error()
		p.record(ctx, rec, nil, start, nil)
		return nil, err
	}
	rec.Chunks = retrieved.Chunks
	rec.Similarity = retrieved.MaxScore

	if retrieved.MaxScore < p.cfg.RetrievalThreshold {
		reason := "retrieval_low"
		env := p.envelope(Envelope{
			Answer:             LowConfidenceAnswer,
			Guardrail:          GuardrailDecision{Status: StatusLowConfidence, Reason: &reason},
			Citations:          CitationsFor(retrieved.Chunks),
			Topics:             CollectTopics(retrieved.Chunks),
			Similarity:         retrieved.MaxScore,
			Mode:               hints.Mode,
			Archetype:          optional(effective),
			ArchetypeBreakdown: inferred.Vector,
		})
		p.record(ctx, rec, env, start, nil)
		return env, nil
	}

	// Generation. A failure here is still observable: the interaction is
	// logged once with the retrieved chunks and the error before returning.
	instructions := BuildInstructions(retrieved.Chunks, effective, hints.Mode)
	rec.Prompt = instructions
	out, err := p.generation.Complete(ctx, instructions, messages, GenerationParams{})
	if err != nil {
		rec.Error = err.Error()
		p.record(ctx, rec, nil, start, nil)
		return nil, err
	}

	env := p.envelope(Envelope{
		Answer:             out.Text,
		Citations:          CitationsFor(retrieved.Chunks),
		Topics:             CollectTopics(retrieved.Chunks),
		Templates:          CollectTemplates(retrieved.Chunks),
		Similarity:         retrieved.MaxScore,
		Mode:               hints.Mode,
		Archetype:          optional(effective),
		ArchetypeBreakdown: inferred.Vector,
	})
	p.record(ctx, rec, env, start, out.Usage)
	return env, nil
}

// MetaEnvelope is the fixed narrative response with a neutral breakdown.
func MetaEnvelope(tag, mode string) Envelope {
	return Envelope{
		Answer:             intent.MetaAnswer,
		Intents:            []string{tag},
		Mode:               mode,
		ArchetypeBreakdown: archetype.Neutral(),
	}
}

func (p *Pipeline) overrideEnvelope(name, mode string) *Envelope {
	if !archetype.Valid(name) {
		return p.envelope(Envelope{
			Answer:             InvalidOverrideAnswer(name),
			Intents:            []string{intent.TagOverride},
			Mode:               mode,
			ArchetypeBreakdown: archetype.Neutral(),
		})
	}
	return p.envelope(Envelope{
		Answer:             OverrideAck(name),
		Intents:            []string{intent.TagOverride},
		Mode:               mode,
		Archetype:          optional(name),
		ArchetypeBreakdown: archetype.OneHot(name),
	})
}

// envelope normalizes a partially-built envelope so every path emits the
// identical field set: non-nil slices, an explicit guardrail status, and a
// breakdown map even when scoring was bypassed.
func (p *Pipeline) envelope(e Envelope) *Envelope {
	if e.Guardrail.Status == "" {
		e.Guardrail.Status = StatusOK
	}
	if e.Citations == nil {
		e.Citations = []Citation{}
	}
	if e.Intents == nil {
		e.Intents = []string{}
	}
	if e.Topics == nil {
		e.Topics = []string{}
	}
	if e.Templates == nil {
		e.Templates = []string{}
	}
	if e.ArchetypeBreakdown == nil {
		e.ArchetypeBreakdown = archetype.Neutral()
	}
	return &e
}

// record finalizes the interaction and hands it to the logger exactly once.
// The logger is best-effort by contract; nothing here can change the response.
func (p *Pipeline) record(ctx context.Context, rec *Interaction, env *Envelope, start time.Time, usage *TokenUsage) {
	if p.logger == nil {
		return
	}
	rec.LatencyMs = p.now().Sub(start).Milliseconds()
	rec.Usage = usage
	if env != nil {
		rec.Status = env.Guardrail.Status
		if env.Guardrail.Reason != nil {
			rec.Reason = *env.Guardrail.Reason
		}
		rec.Answer = env.Answer
		rec.Intents = env.Intents
		if rec.Breakdown == nil {
			rec.Breakdown = env.ArchetypeBreakdown
		}
		if env.Archetype != nil {
			rec.Archetype = *env.Archetype
		}
		rec.Similarity = env.Similarity
	} else {
		rec.Status = "error"
	}
	p.logger.Record(ctx, rec)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waypoint/internal/assistant/archetype"
	"waypoint/internal/assistant/intent"
	"waypoint/internal/assistant/ratelimit"
)

type stubRetrieval struct {
	result *RetrievalResult
	err    error
	calls  int
}

func (s *stubRetrieval) Fetch(_ context.Context, _ string, _ QueryHints) (*RetrievalResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubEngine struct {
	result *ArchetypeResult
	err    error
	calls  int
}

func (s *stubEngine) Compute(_ context.Context, _ []ChatMessage, _ QueryHints, _ map[string]float64) (*ArchetypeResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubGeneration struct {
	result       *GenerationResult
	err          error
	calls        int
	instructions string
}

func (s *stubGeneration) Complete(_ context.Context, instructions string, _ []ChatMessage, _ GenerationParams) (*GenerationResult, error) {
	s.calls++
	s.instructions = instructions
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type captureLogger struct {
	recs []*Interaction
}

func (c *captureLogger) Record(_ context.Context, rec *Interaction) {
	c.recs = append(c.recs, rec)
}

type fixture struct {
	pipeline   *Pipeline
	retrieval  *stubRetrieval
	engine     *stubEngine
	generation *stubGeneration
	logger     *captureLogger
}

func goodChunks() []RetrievedChunk {
	return []RetrievedChunk{
		{ID: "c1", Title: "Voyager 900 touring guide", Content: "touring twin", Topic: "models", Templates: []string{"spec-summary"}, Score: 0.9},
		{ID: "c2", Title: "Break-in guidance", Content: "first service", Topic: "ownership", Score: 0.7},
	}
}

func newFixture() *fixture {
	f := &fixture{
		retrieval: &stubRetrieval{result: &RetrievalResult{Chunks: goodChunks(), MaxScore: 0.9}},
		engine: &stubEngine{result: &ArchetypeResult{
			Primary: "tourer",
			Vector:  map[string]float64{"commuter": 0.1, "tourer": 0.6, "adventurer": 0.1, "racer": 0.1, "collector": 0.1},
		}},
		generation: &stubGeneration{result: &GenerationResult{
			Text:  "The Voyager 900 is the touring pick.",
			Usage: &TokenUsage{InputTokens: 120, OutputTokens: 40},
		}},
		logger: &captureLogger{},
	}
	f.pipeline = New(Config{},
		NewOriginGuard("local", "https://meridianmoto.com"),
		ratelimit.New(time.Minute, 1000),
		f.retrieval, f.engine, f.generation, f.logger)
	return f
}

func userInput(text string) Input {
	return Input{
		Req:       &Request{Messages: []ChatMessage{{Role: RoleUser, Content: text}}},
		ClientKey: "test-client",
	}
}

func TestProcessFullPath(t *testing.T) {
	f := newFixture()

	in := userInput("Which model suits long trips?")
	in.Req.SessionID = "s-1"
	in.Req.Context = &RequestContext{Mode: "prospect"}

	env, err := f.pipeline.Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "The Voyager 900 is the touring pick.", env.Answer)
	assert.Equal(t, StatusOK, env.Guardrail.Status)
	assert.Nil(t, env.Guardrail.Reason)
	require.Len(t, env.Citations, 2)
	assert.Equal(t, "c1", env.Citations[0].ID)
	assert.Equal(t, []string{"models", "ownership"}, env.Topics)
	assert.Equal(t, []string{"spec-summary"}, env.Templates)
	assert.Equal(t, 0.9, env.Similarity)
	assert.Equal(t, ModeProspect, env.Mode)
	require.NotNil(t, env.Archetype)
	assert.Equal(t, "tourer", *env.Archetype)

	// Exactly one audit record, carrying the whole story.
	require.Len(t, f.logger.recs, 1)
	rec := f.logger.recs[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "s-1", rec.SessionID)
	assert.Equal(t, "test-client", rec.ClientKey)
	assert.Equal(t, StatusOK, rec.Status)
	assert.Equal(t, "Which model suits long trips?", rec.Query)
	assert.Equal(t, env.Answer, rec.Answer)
	assert.Len(t, rec.Chunks, 2)
	assert.NotEmpty(t, rec.Prompt)
	require.NotNil(t, rec.Usage)
	assert.Equal(t, 120, rec.Usage.InputTokens)
	assert.GreaterOrEqual(t, rec.LatencyMs, int64(0))

	assert.Equal(t, 1, f.engine.calls)
	assert.Equal(t, 1, f.retrieval.calls)
	assert.Equal(t, 1, f.generation.calls)
}

func TestProcessMetaShortCircuit(t *testing.T) {
	f := newFixture()

	env, err := f.pipeline.Process(context.Background(), userInput("Who built you?"))
	require.NoError(t, err)

	assert.Equal(t, intent.MetaAnswer, env.Answer)
	assert.Equal(t, StatusOK, env.Guardrail.Status)
	assert.Equal(t, []string{intent.TagAssistantOrigin}, env.Intents)
	assert.Nil(t, env.Archetype)
	assert.Equal(t, archetype.Neutral(), env.ArchetypeBreakdown)
	assert.Empty(t, env.Citations)

	// Scoring, retrieval, and generation are fully bypassed; still logged once.
	assert.Zero(t, f.engine.calls)
	assert.Zero(t, f.retrieval.calls)
	assert.Zero(t, f.generation.calls)
	require.Len(t, f.logger.recs, 1)
	assert.Empty(t, f.logger.recs[0].Chunks)
	assert.Equal(t, StatusOK, f.logger.recs[0].Status)
}

func TestProcessReset(t *testing.T) {
	f := newFixture()

	env, err := f.pipeline.Process(context.Background(),
		userInput("Please clear your memory of my archetype"))
	require.NoError(t, err)

	assert.Equal(t, intent.ResetAck, env.Answer)
	assert.Equal(t, []string{intent.TagArchetypeReset}, env.Intents)
	assert.Nil(t, env.Archetype)
	assert.Equal(t, archetype.Neutral(), env.ArchetypeBreakdown)
	assert.Zero(t, f.generation.calls)
	require.Len(t, f.logger.recs, 1)
}

func TestProcessOverrideValid(t *testing.T) {
	f := newFixture()

	env, err := f.pipeline.Process(context.Background(),
		userInput("Change my archetype to racer"))
	require.NoError(t, err)

	require.NotNil(t, env.Archetype)
	assert.Equal(t, "racer", *env.Archetype)
	assert.Equal(t, archetype.OneHot("racer"), env.ArchetypeBreakdown)
	assert.Equal(t, []string{intent.TagOverride}, env.Intents)
	assert.Zero(t, f.generation.calls)
}

func TestProcessOverrideUnknownName(t *testing.T) {
	f := newFixture()

	env, err := f.pipeline.Process(context.Background(),
		userInput("Change my archetype to unicorn"))
	require.NoError(t, err)

	assert.Nil(t, env.Archetype)
	assert.Contains(t, env.Answer, "unicorn")
	for _, k := range archetype.Keys {
		assert.Contains(t, env.Answer, k)
	}
	assert.Equal(t, archetype.Neutral(), env.ArchetypeBreakdown)
}

func TestProcessBlocked(t *testing.T) {
	f := newFixture()

	env, err := f.pipeline.Process(context.Background(),
		userInput("How much does the Voyager 900 cost?"))
	require.NoError(t, err)

	assert.Equal(t, StatusBlocked, env.Guardrail.Status)
	require.NotNil(t, env.Guardrail.Reason)
	assert.Equal(t, intent.ReasonPricing, *env.Guardrail.Reason)
	assert.NotEmpty(t, env.Answer)

	assert.Zero(t, f.retrieval.calls)
	assert.Zero(t, f.generation.calls)
	require.Len(t, f.logger.recs, 1)
	assert.Equal(t, StatusBlocked, f.logger.recs[0].Status)
	assert.Equal(t, intent.ReasonPricing, f.logger.recs[0].Reason)
}

func TestProcessLowConfidenceNeverGenerates(t *testing.T) {
	f := newFixture()
	f.retrieval.result = &RetrievalResult{
		Chunks:   []RetrievedChunk{{ID: "c1", Score: 0.2}},
		MaxScore: 0.2,
	}

	env, err := f.pipeline.Process(context.Background(),
		userInput("Tell me about sidecar options"))
	require.NoError(t, err)

	assert.Equal(t, LowConfidenceAnswer, env.Answer)
	assert.Equal(t, StatusLowConfidence, env.Guardrail.Status)
	require.NotNil(t, env.Guardrail.Reason)
	assert.Equal(t, "retrieval_low", *env.Guardrail.Reason)
	assert.Len(t, env.Citations, 1)
	assert.Equal(t, 0.2, env.Similarity)

	assert.Zero(t, f.generation.calls)
	require.Len(t, f.logger.recs, 1)
	rec := f.logger.recs[0]
	assert.Equal(t, StatusLowConfidence, rec.Status)
	assert.Len(t, rec.Chunks, 1, "what retrieval returned is still auditable")
}

func TestProcessContextOverrideBeatsInference(t *testing.T) {
	f := newFixture()

	in := userInput("Which model suits long trips?")
	in.Req.Context = &RequestContext{ArchetypeOverride: "collector"}

	env, err := f.pipeline.Process(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, env.Archetype)
	assert.Equal(t, "collector", *env.Archetype)
	assert.Contains(t, f.generation.instructions, "heritage")
}

func TestProcessInvalidContextOverrideIgnored(t *testing.T) {
	f := newFixture()

	in := userInput("Which model suits long trips?")
	in.Req.Context = &RequestContext{ArchetypeOverride: "astronaut"}

	env, err := f.pipeline.Process(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, env.Archetype)
	assert.Equal(t, "tourer", *env.Archetype)
}

func TestProcessGenerationFailureStillLogsOnce(t *testing.T) {
	f := newFixture()
	f.generation.err = &UpstreamError{Cause: errors.New("provider down")}

	env, err := f.pipeline.Process(context.Background(), userInput("Which model suits long trips?"))
	require.Error(t, err)
	assert.Nil(t, env)

	var ue *UpstreamError
	assert.ErrorAs(t, err, &ue)

	require.Len(t, f.logger.recs, 1)
	rec := f.logger.recs[0]
	assert.Equal(t, "error", rec.Status)
	assert.NotEmpty(t, rec.Error)
	assert.Len(t, rec.Chunks, 2, "retrieved context is preserved for debugging")
}

func TestProcessRetrievalFailureStillLogsOnce(t *testing.T) {
	f := newFixture()
	f.retrieval.err = &UpstreamError{Cause: errors.New("search unreachable")}

	_, err := f.pipeline.Process(context.Background(), userInput("Which model suits long trips?"))
	require.Error(t, err)
	assert.Zero(t, f.generation.calls)
	require.Len(t, f.logger.recs, 1)
	assert.Equal(t, "error", f.logger.recs[0].Status)
}

func TestProcessOriginRejectedIsNotLogged(t *testing.T) {
	f := newFixture()
	f.pipeline.guard = NewOriginGuard("production", "https://meridianmoto.com")

	in := userInput("hello")
	in.Origin = "https://evil.example"

	_, err := f.pipeline.Process(context.Background(), in)
	var oe *OriginRejectedError
	require.ErrorAs(t, err, &oe)
	assert.Empty(t, f.logger.recs, "admission rejects are not interactions")
}

func TestProcessRateLimitedIsNotLogged(t *testing.T) {
	f := newFixture()
	f.pipeline.limiter = ratelimit.New(time.Minute, 1)

	_, err := f.pipeline.Process(context.Background(), userInput("Which model suits long trips?"))
	require.NoError(t, err)

	_, err = f.pipeline.Process(context.Background(), userInput("And for the city?"))
	var rle *RateLimitedError
	require.ErrorAs(t, err, &rle)
	assert.Greater(t, rle.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, rle.RetryAfter, time.Minute)

	require.Len(t, f.logger.recs, 1, "only the admitted request logs")
}

func TestProcessValidationFailureIsNotLogged(t *testing.T) {
	f := newFixture()

	_, err := f.pipeline.Process(context.Background(), Input{
		Req:       &Request{Messages: []ChatMessage{{Role: RoleAssistant, Content: "hi"}}},
		ClientKey: "k",
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, f.logger.recs)
}

func TestProcessEnvelopeAlwaysUniform(t *testing.T) {
	f := newFixture()

	// Every processed path must emit the identical field set, non-nil slices
	// and breakdown included, so clients never branch on pipeline internals.
	inputs := []Input{
		userInput("Who built you?"),
		userInput("Please clear your memory of my archetype"),
		userInput("Change my archetype to racer"),
		userInput("How much does it cost?"),
		userInput("Which model suits long trips?"),
	}
	for _, in := range inputs {
		env, err := f.pipeline.Process(context.Background(), in)
		require.NoError(t, err)
		assert.NotNil(t, env.Citations, in.Req.Messages[0].Content)
		assert.NotNil(t, env.Intents)
		assert.NotNil(t, env.Topics)
		assert.NotNil(t, env.Templates)
		assert.NotNil(t, env.ArchetypeBreakdown)
		assert.NotEmpty(t, env.Guardrail.Status)
	}
}

func TestProcessNilLoggerDoesNotPanic(t *testing.T) {
	f := newFixture()
	f.pipeline.logger = nil

	env, err := f.pipeline.Process(context.Background(), userInput("Who built you?"))
	require.NoError(t, err)
	assert.Equal(t, intent.MetaAnswer, env.Answer)
}

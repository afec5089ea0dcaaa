package llm

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	name    string
	delay   time.Duration
	err     error
	calls   int
	lastCtx context.Context
}

func (c *recordingClient) Name() string { return c.name }
func (c *recordingClient) Close() error { return nil }

func (c *recordingClient) Complete(ctx context.Context, _ string, _ []Message, _ Params) (*Result, error) {
	c.calls++
	c.lastCtx = ctx
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return &Result{Text: "done"}, nil
}

func TestWrapAppliesFirstMiddlewareOutermost(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Client) Client {
			return clientFunc(func(ctx context.Context, ins string, msgs []Message, p Params) (*Result, error) {
				order = append(order, name)
				return next.Complete(ctx, ins, msgs, p)
			})
		}
	}

	c := Wrap(&recordingClient{name: "base"}, tag("outer"), tag("inner"))
	_, err := c.Complete(context.Background(), "", nil, Params{})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type clientFunc func(context.Context, string, []Message, Params) (*Result, error)

func (clientFunc) Name() string { return "func" }
func (clientFunc) Close() error { return nil }
func (f clientFunc) Complete(ctx context.Context, ins string, msgs []Message, p Params) (*Result, error) {
	return f(ctx, ins, msgs, p)
}

func TestWithTimeoutConvertsDeadlineToUpstream(t *testing.T) {
	base := &recordingClient{name: "slow", delay: time.Second}
	c := Wrap(base, WithTimeout(10*time.Millisecond))

	_, err := c.Complete(context.Background(), "", nil, Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.NotErrorIs(t, err, context.DeadlineExceeded,
		"the deadline is an implementation detail once classified")
}

func TestWithTimeoutPassesThroughFastCalls(t *testing.T) {
	base := &recordingClient{name: "fast"}
	c := Wrap(base, WithTimeout(time.Second))

	res, err := c.Complete(context.Background(), "", nil, Params{})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Text)

	_, hasDeadline := base.lastCtx.Deadline()
	assert.True(t, hasDeadline)
}

func TestWithTimeoutZeroMeansUnbounded(t *testing.T) {
	base := &recordingClient{name: "base"}
	c := Wrap(base, WithTimeout(0))

	_, err := c.Complete(context.Background(), "", nil, Params{})
	require.NoError(t, err)
	_, hasDeadline := base.lastCtx.Deadline()
	assert.False(t, hasDeadline)
}

func TestWithTimeoutPreservesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	c := Wrap(&recordingClient{name: "broken", err: boom}, WithTimeout(time.Second))

	_, err := c.Complete(context.Background(), "", nil, Params{})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestWithLoggingWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	c := Wrap(&recordingClient{name: "base"}, WithLogging(logger))
	_, err := c.Complete(context.Background(), "", []Message{{Role: "user", Content: "hi"}}, Params{})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "llm base")
	assert.Contains(t, out, "turns=1")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestFakeClientIsDeterministic(t *testing.T) {
	f := NewFakeClient()
	msgs := []Message{{Role: "user", Content: "tell me about the Urban 220"}}

	a, err := f.Complete(context.Background(), "instructions\n[1] ref", msgs, Params{})
	require.NoError(t, err)
	b, err := f.Complete(context.Background(), "instructions\n[1] ref", msgs, Params{})
	require.NoError(t, err)

	assert.Equal(t, a.Text, b.Text)
	assert.Contains(t, a.Text, "Urban 220")
	require.NotNil(t, a.Usage)
}

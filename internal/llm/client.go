package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	// ErrUpstreamUnavailable marks failures the caller may retry later:
	// unreachable provider, 5xx responses, exhausted retries.
	ErrUpstreamUnavailable = errors.New("llm upstream unavailable")

	// ErrEmptyCompletion is returned when the provider answered but produced
	// no usable text.
	ErrEmptyCompletion = errors.New("llm returned an empty completion")
)

// Message is one turn of the conversation forwarded to the provider.
type Message struct {
	Role    string
	Content string
}

// Params tunes a single completion call.
type Params struct {
	Temperature float32
	MaxTokens   int
}

// Usage carries token accounting when the provider reports it.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Result is a completed generation.
type Result struct {
	Text       string
	ResponseID string
	RequestID  string
	Usage      *Usage
}

// Client is the provider-agnostic completion interface.
type Client interface {
	Name() string
	Close() error
	Complete(ctx context.Context, instructions string, messages []Message, params Params) (*Result, error)
}

// Middleware decorates a Client with a cross-cutting concern.
type Middleware func(Client) Client

// Wrap applies middlewares so the first listed is the outermost.
func Wrap(c Client, mws ...Middleware) Client {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

type loggingClient struct {
	Client
	log *log.Logger
}

// WithLogging logs one line per completion with latency and outcome. A nil
// logger uses the standard logger.
func WithLogging(l *log.Logger) Middleware {
	return func(next Client) Client {
		return &loggingClient{Client: next, log: l}
	}
}

func (c *loggingClient) Complete(ctx context.Context, instructions string, messages []Message, params Params) (*Result, error) {
	start := time.Now()
	res, err := c.Client.Complete(ctx, instructions, messages, params)
	elapsed := time.Since(start).Round(time.Millisecond)
	line := fmt.Sprintf("llm %s: turns=%d elapsed=%s", c.Client.Name(), len(messages), elapsed)
	if err != nil {
		line += fmt.Sprintf(" err=%v", err)
	} else if res.Usage != nil {
		line += fmt.Sprintf(" tokens=%d/%d", res.Usage.InputTokens, res.Usage.OutputTokens)
	}
	if c.log != nil {
		c.log.Print(line)
	} else {
		log.Print(line)
	}
	return res, err
}

type timeoutClient struct {
	Client
	timeout time.Duration
}

// WithTimeout bounds each completion call. A deadline hit surfaces as
// ErrUpstreamUnavailable so callers treat it like any other provider outage.
func WithTimeout(d time.Duration) Middleware {
	return func(next Client) Client {
		return &timeoutClient{Client: next, timeout: d}
	}
}

func (c *timeoutClient) Complete(ctx context.Context, instructions string, messages []Message, params Params) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	res, err := c.Client.Complete(ctx, instructions, messages, params)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: deadline exceeded after %s", ErrUpstreamUnavailable, c.timeout)
	}
	return res, err
}

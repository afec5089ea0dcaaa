package llm

import (
	"context"
	"fmt"
	"strings"
)

// FakeClient returns deterministic completions for offline development and
// tests. Selected with GENERATION_PROVIDER=fake.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(_ context.Context, instructions string, messages []Message, _ Params) (*Result, error) {
	last := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			last = strings.TrimSpace(messages[i].Content)
			break
		}
	}
	refs := strings.Count(instructions, "\n[")
	return &Result{
		Text:  fmt.Sprintf("(offline) Based on %d reference(s): here's what I can tell you about %q.", refs, last),
		Usage: &Usage{InputTokens: len(instructions) / 4, OutputTokens: 32},
	}, nil
}

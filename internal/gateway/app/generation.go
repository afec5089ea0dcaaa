package app

import (
	"context"
	"log"

	"waypoint/internal/assistant"
	"waypoint/internal/gateway/config"
	"waypoint/internal/llm"
)

// initGeneration selects the completion provider and wraps it with the
// standard client middleware stack.
func initGeneration(ctx context.Context, cfg *config.Config) (assistant.Generation, error) {
	var (
		cli llm.Client
		err error
	)
	switch cfg.Generation.Provider {
	case "gemini":
		cli, err = llm.NewGeminiClient(ctx, cfg.Generation.Model)
		if err != nil {
			return nil, err
		}
	case "openai":
		cli = llm.NewOpenAIClient(cfg.Generation.APIKey, cfg.Generation.Model, cfg.Generation.BaseURL)
	default:
		cli = llm.NewFakeClient()
	}
	cli = llm.Wrap(cli,
		llm.WithLogging(nil),
		llm.WithTimeout(cfg.Generation.Timeout),
	)
	log.Printf("generation client: %s", cli.Name())
	return &generationAdapter{cli: cli}, nil
}

// generationAdapter bridges the provider-agnostic llm.Client onto the
// pipeline's Generation collaborator.
type generationAdapter struct {
	cli llm.Client
}

func (a *generationAdapter) Complete(ctx context.Context, instructions string, messages []assistant.ChatMessage, params assistant.GenerationParams) (*assistant.GenerationResult, error) {
	turns := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, llm.Message{Role: m.Role, Content: m.Content})
	}
	res, err := a.cli.Complete(ctx, instructions, turns, llm.Params{
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	out := &assistant.GenerationResult{
		Text:       res.Text,
		ResponseID: res.ResponseID,
		RequestID:  res.RequestID,
	}
	if res.Usage != nil {
		out.Usage = &assistant.TokenUsage{
			InputTokens:  res.Usage.InputTokens,
			OutputTokens: res.Usage.OutputTokens,
		}
	}
	return out, nil
}

package services

import (
	"context"
	"errors"
	"fmt"

	"tagnotes/internal/config"
	"tagnotes/internal/events"
	"tagnotes/internal/llm/client"
)

// CredentialStore looks up stored API keys by provider id.
type CredentialStore interface {
	GetApiKey(provider string) (string, error)
}

type chatClientFactory func(ctx context.Context, key string, opts client.ModelOptions) (*client.LLMClient, error)

var chatClientFactories = map[string]chatClientFactory{
	config.ProviderOpenAI:    client.NewOpenAIClient,
	config.ProviderAnthropic: client.NewClaudeClient,
	config.ProviderGemini:    client.NewGeminiClient,
}

// NewSummarizer picks the language-model summarizer when a credential is
// available and the local one otherwise. It only fails on broken embedded
// assets; a missing or unusable credential is not an error.
func NewSummarizer(ctx context.Context, cfg config.Config, creds CredentialStore, catalog *ModelCatalog) (Summarizer, error) {
	local := NewLocalSummarizer(cfg.MaxFilesPerTag)
	s := cfg.Synthesis

	key := s.APIKey
	if key == "" && s.UseKeyring && creds != nil {
		stored, err := creds.GetApiKey(s.Provider)
		switch {
		case err == nil:
			key = stored
		case errors.Is(err, ErrCredentialNotFound):
		default:
			events.Emit(ctx, events.StageSummarize, events.NewWarn(fmt.Sprintf("keyring lookup failed: %v", err)))
		}
	}
	if key == "" {
		events.Emit(ctx, events.StageSummarize, events.NewInfo("no synthesis credential, using changed-file summaries").
			With("provider", s.Provider))
		return local, nil
	}

	factory, ok := chatClientFactories[s.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported provider %q", config.ErrInvalidConfig, s.Provider)
	}

	modelName := s.Model
	if catalog != nil {
		resolved, err := catalog.ResolveModel(s.Provider, s.Model)
		if err != nil {
			return nil, err
		}
		modelName = resolved
	}

	llm, err := factory(ctx, key, client.ModelOptions{
		Model:       modelName,
		BaseURL:     s.BaseURL,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
		Timeout:     s.Timeout,
	})
	if err != nil {
		events.Emit(ctx, events.StageSummarize, events.NewWarn(fmt.Sprintf("synthesis disabled: %v", err)).
			With("provider", s.Provider))
		return local, nil
	}

	events.Emit(ctx, events.StageSummarize, events.NewInfo("synthesis enabled").
		With("provider", llm.Provider).
		With("model", llm.Model))
	return NewLLMSummarizer(llm, cfg.MaxFilesPerTag, s.Timeout)
}

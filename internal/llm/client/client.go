package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// LLMClient is a provider-agnostic wrapper around an eino chat model.
type LLMClient struct {
	ChatModel model.BaseChatModel
	Provider  string
	Model     string
}

// ModelOptions carries the sampling settings shared by every provider.
type ModelOptions struct {
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func NewOpenAIClient(ctx context.Context, key string, opts ModelOptions) (*LLMClient, error) {
	temperature := opts.Temperature
	maxTokens := opts.MaxTokens
	cfg := &openai.ChatModelConfig{
		APIKey:      key,
		Model:       opts.Model,
		BaseURL:     opts.BaseURL,
		Timeout:     opts.Timeout,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}
	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create openai chat model: %w", err)
	}
	return &LLMClient{ChatModel: chatModel, Provider: "openai", Model: opts.Model}, nil
}

func NewClaudeClient(ctx context.Context, key string, opts ModelOptions) (*LLMClient, error) {
	temperature := opts.Temperature
	cfg := &claude.Config{
		APIKey:      key,
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: &temperature,
		HTTPClient:  &http.Client{Timeout: opts.Timeout},
	}
	if opts.BaseURL != "" {
		baseURL := opts.BaseURL
		cfg.BaseURL = &baseURL
	}
	chatModel, err := claude.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create claude chat model: %w", err)
	}
	return &LLMClient{ChatModel: chatModel, Provider: "anthropic", Model: opts.Model}, nil
}

func NewGeminiClient(ctx context.Context, key string, opts ModelOptions) (*LLMClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	if opts.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	genaiClient, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	temperature := opts.Temperature
	maxTokens := opts.MaxTokens
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      genaiClient,
		Model:       opts.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini chat model: %w", err)
	}
	return &LLMClient{ChatModel: chatModel, Provider: "gemini", Model: opts.Model}, nil
}

// Complete sends one system + user exchange and returns the assistant text.
func (c *LLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c == nil || c.ChatModel == nil {
		return "", fmt.Errorf("chat model not configured")
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}
	msg, err := c.ChatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", c.Provider, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%s returned no message", c.Provider)
	}

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", fmt.Errorf("%s returned empty content", c.Provider)
	}
	return content, nil
}

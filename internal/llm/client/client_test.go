package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tagnotes/internal/tests/mocks"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSendsSystemAndUserMessages(t *testing.T) {
	mock := &mocks.ChatModelMock{
		GenerateFunc: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
			return schema.AssistantMessage("  - Faster search\n", nil), nil
		},
	}
	c := &LLMClient{ChatModel: mock, Provider: "openai"}

	out, err := c.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, "- Faster search", out)

	require.Equal(t, 1, mock.CallCount())
	msgs := mock.Calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "system text", msgs[0].Content)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, "user text", msgs[1].Content)
}

func TestCompleteRejectsEmptyContent(t *testing.T) {
	mock := &mocks.ChatModelMock{
		GenerateFunc: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
			return schema.AssistantMessage("   \n", nil), nil
		},
	}
	c := &LLMClient{ChatModel: mock, Provider: "openai"}

	_, err := c.Complete(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestCompletePropagatesModelErrors(t *testing.T) {
	boom := errors.New("boom")
	mock := &mocks.ChatModelMock{
		GenerateFunc: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
			return nil, boom
		},
	}
	c := &LLMClient{ChatModel: mock, Provider: "anthropic"}

	_, err := c.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "anthropic")
}

func TestCompleteWithoutModel(t *testing.T) {
	var c *LLMClient
	_, err := c.Complete(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestOpenAIClientReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(context.Background(), "sk-test", ModelOptions{
		Model:       "gpt-4o-mini",
		BaseURL:     srv.URL,
		Temperature: 0.2,
		MaxTokens:   100,
		Timeout:     5 * time.Second,
	})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestEmbeddedPrompts(t *testing.T) {
	system, err := Prompt("release_summary_system")
	require.NoError(t, err)
	assert.True(t, strings.Contains(system, "Internal maintenance"), "system prompt must define the generic bullet")

	user, err := Prompt("release_summary_user")
	require.NoError(t, err)
	assert.Contains(t, user, "{{.Tag}}")

	_, err = Prompt("missing")
	assert.Error(t, err)
}

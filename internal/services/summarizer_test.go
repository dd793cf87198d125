package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagnotes/internal/llm/client"
	"tagnotes/internal/models"
	"tagnotes/internal/tests/mocks"
)

func sampleChanges() models.ChangeSet {
	return models.ChangeSet{
		ToTag:   models.Tag{Name: "api-1.1.0"},
		BaseRef: "api-1.0.0",
		ChangedFiles: []models.ChangedFile{
			{Path: "api/search.go", Stat: "+40 -3"},
			{Path: "assets/logo.png", Stat: "binary"},
		},
		TotalFiles: 2,
	}
}

func mockSummarizer(t *testing.T, mock *mocks.ChatModelMock, timeout time.Duration) *LLMSummarizer {
	t.Helper()
	s, err := NewLLMSummarizer(&client.LLMClient{ChatModel: mock, Provider: "openai", Model: "test"}, 8, timeout)
	require.NoError(t, err)
	return s
}

func TestLocalSummarizerIsDeterministic(t *testing.T) {
	s := NewLocalSummarizer(8)
	first, src := s.Summarize(context.Background(), "api-1.1.0", sampleChanges())
	second, _ := s.Summarize(context.Background(), "api-1.1.0", sampleChanges())

	assert.Equal(t, models.SummarySourceFallback, src)
	assert.Equal(t, []string{"api/search.go (+40 -3)", "assets/logo.png (binary)"}, first)
	assert.Equal(t, first, second)
}

func TestFallbackBullets(t *testing.T) {
	assert.Equal(t, []string{GenericBullet}, FallbackBullets(nil, 8))

	files := []models.ChangedFile{{Path: "a", Stat: "+1 -0"}, {Path: "b", Stat: "+2 -0"}, {Path: "c", Stat: "+3 -0"}}
	assert.Equal(t, []string{"a (+1 -0)", "b (+2 -0)"}, FallbackBullets(files, 2))
}

func TestLLMSummarizerUsesModelBullets(t *testing.T) {
	mock := &mocks.ChatModelMock{
		GenerateFunc: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
			return schema.AssistantMessage("- Faster search results\n\n* New logo across the dashboard\n1. Fewer timeouts\n- Extra bullet", nil), nil
		},
	}
	s := mockSummarizer(t, mock, time.Second)

	bullets, src := s.Summarize(context.Background(), "api-1.1.0", sampleChanges())
	assert.Equal(t, models.SummarySourceAI, src)
	assert.Equal(t, []string{"Faster search results", "New logo across the dashboard", "Fewer timeouts"}, bullets)

	require.Equal(t, 1, mock.CallCount())
	user := mock.Calls[0][1].Content
	assert.Contains(t, user, "Release: api-1.1.0")
	assert.Contains(t, user, "Compared with: api-1.0.0")
	assert.Contains(t, user, "- api/search.go (+40 -3)")
}

func TestLLMSummarizerFallsBackOnError(t *testing.T) {
	captured := captureEvents(t)
	mock := &mocks.ChatModelMock{
		GenerateFunc: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
			return nil, errors.New("rate limited")
		},
	}
	s := mockSummarizer(t, mock, time.Second)

	bullets, src := s.Summarize(context.Background(), "api-1.1.0", sampleChanges())
	assert.Equal(t, models.SummarySourceFallback, src)
	assert.Equal(t, []string{"api/search.go (+40 -3)", "assets/logo.png (binary)"}, bullets)
	assert.Len(t, captured.ofType("warn"), 1)
}

func TestLLMSummarizerFallsBackOnUnusableResponse(t *testing.T) {
	mock := &mocks.ChatModelMock{
		GenerateFunc: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
			return schema.AssistantMessage("-\n*\n", nil), nil
		},
	}
	bullets, src := mockSummarizer(t, mock, time.Second).Summarize(context.Background(), "api-1.1.0", models.ChangeSet{})
	assert.Equal(t, models.SummarySourceFallback, src)
	assert.Equal(t, []string{GenericBullet}, bullets)
}

func TestLLMSummarizerTimesOut(t *testing.T) {
	mock := &mocks.ChatModelMock{
		GenerateFunc: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	start := time.Now()
	_, src := mockSummarizer(t, mock, 20*time.Millisecond).Summarize(context.Background(), "api-1.1.0", sampleChanges())
	assert.Equal(t, models.SummarySourceFallback, src)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBuildPromptMentionsTruncation(t *testing.T) {
	s := mockSummarizer(t, &mocks.ChatModelMock{}, time.Second)
	cs := sampleChanges()
	cs.TotalFiles = 12

	prompt, err := s.BuildPrompt("api-1.1.0", cs)
	require.NoError(t, err)
	assert.Contains(t, prompt, "(first 2 of 12)")

	prompt, err = s.BuildPrompt("api-1.1.0", models.ChangeSet{})
	require.NoError(t, err)
	assert.Contains(t, prompt, "no file-level changes")
}

func TestParseBullets(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want []string
	}{
		{"dashes", "- a\n- b", 3, []string{"a", "b"}},
		{"numbered", "1) first\n2. second", 3, []string{"first", "second"}},
		{"bullet glyph", "• shiny", 3, []string{"shiny"}},
		{"plain lines kept", "No marker here\n\n", 3, []string{"No marker here"}},
		{"bold is not a marker", "**Bold** news", 3, []string{"**Bold** news"}},
		{"negative number kept", "-5% latency", 3, []string{"-5% latency"}},
		{"capped", "- a\n- b\n- c\n- d", 2, []string{"a", "b"}},
		{"only markers", "-\n  *  \n", 3, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseBullets(tc.in, tc.max))
		})
	}
}

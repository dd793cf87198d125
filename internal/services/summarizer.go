package services

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"tagnotes/internal/events"
	"tagnotes/internal/llm/client"
	"tagnotes/internal/models"
)

const (
	// MaxAIBullets bounds the bullets kept from a model response.
	MaxAIBullets = 3
	// bulletWordTarget is the per-bullet length hint given to the model.
	bulletWordTarget = 18

	GenericBullet = "Internal maintenance and stability improvements."
)

// Summarizer turns a tag's changed files into short bullets. Implementations
// never fail; they degrade to deterministic output instead.
type Summarizer interface {
	Summarize(ctx context.Context, tagName string, changes models.ChangeSet) ([]string, models.SummarySource)
}

// LocalSummarizer renders the changed files themselves as bullets.
type LocalSummarizer struct {
	MaxFiles int
}

func NewLocalSummarizer(maxFiles int) *LocalSummarizer {
	return &LocalSummarizer{MaxFiles: maxFiles}
}

func (s *LocalSummarizer) Summarize(_ context.Context, _ string, changes models.ChangeSet) ([]string, models.SummarySource) {
	return FallbackBullets(changes.ChangedFiles, s.MaxFiles), models.SummarySourceFallback
}

// FallbackBullets returns "path (stat)" lines, capped at maxFiles, or the
// generic bullet when there is nothing to show.
func FallbackBullets(files []models.ChangedFile, maxFiles int) []string {
	n := len(files)
	if maxFiles > 0 && n > maxFiles {
		n = maxFiles
	}
	if n == 0 {
		return []string{GenericBullet}
	}
	bullets := make([]string, 0, n)
	for _, f := range files[:n] {
		bullets = append(bullets, f.String())
	}
	return bullets
}

// LLMSummarizer asks a chat model for customer-facing bullets and falls back
// to LocalSummarizer on any failure.
type LLMSummarizer struct {
	client   *client.LLMClient
	fallback *LocalSummarizer
	timeout  time.Duration
	system   string
	user     *template.Template
}

func NewLLMSummarizer(llm *client.LLMClient, maxFiles int, timeout time.Duration) (*LLMSummarizer, error) {
	system, err := client.Prompt("release_summary_system")
	if err != nil {
		return nil, err
	}
	userText, err := client.Prompt("release_summary_user")
	if err != nil {
		return nil, err
	}
	userTmpl, err := template.New("release_summary_user").Parse(userText)
	if err != nil {
		return nil, fmt.Errorf("parse summary prompt: %w", err)
	}
	return &LLMSummarizer{
		client:   llm,
		fallback: NewLocalSummarizer(maxFiles),
		timeout:  timeout,
		system:   system,
		user:     userTmpl,
	}, nil
}

type summaryPromptData struct {
	Tag        string
	Base       string
	Files      []string
	TotalFiles int
	Truncated  bool
	MaxBullets int
	MaxWords   int
}

// BuildPrompt renders the user prompt for one tag.
func (s *LLMSummarizer) BuildPrompt(tagName string, changes models.ChangeSet) (string, error) {
	data := summaryPromptData{
		Tag:        tagName,
		Base:       changes.BaseRef,
		TotalFiles: changes.TotalFiles,
		Truncated:  changes.Truncated(),
		MaxBullets: MaxAIBullets,
		MaxWords:   bulletWordTarget,
	}
	for _, f := range changes.ChangedFiles {
		data.Files = append(data.Files, f.String())
	}
	var buf bytes.Buffer
	if err := s.user.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render summary prompt: %w", err)
	}
	return buf.String(), nil
}

func (s *LLMSummarizer) Summarize(ctx context.Context, tagName string, changes models.ChangeSet) ([]string, models.SummarySource) {
	bullets, err := s.generate(ctx, tagName, changes)
	if err != nil {
		events.Emit(ctx, events.StageSummarize, events.NewWarn(fmt.Sprintf("synthesis failed for %s, using changed files: %v", tagName, err)).
			With("tag", tagName))
		return s.fallback.Summarize(ctx, tagName, changes)
	}
	return bullets, models.SummarySourceAI
}

func (s *LLMSummarizer) generate(ctx context.Context, tagName string, changes models.ChangeSet) ([]string, error) {
	prompt, err := s.BuildPrompt(tagName, changes)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.client.Complete(ctx, s.system, prompt)
	if err != nil {
		return nil, err
	}
	bullets := ParseBullets(text, MaxAIBullets)
	if len(bullets) == 0 {
		return nil, fmt.Errorf("response contained no usable bullets")
	}
	return bullets, nil
}

var listMarker = regexp.MustCompile(`^(?:[-*+•]|\d+[.)])(?:\s+|$)`)

// ParseBullets splits a model response into at most max bullets, stripping
// list markers and dropping blank lines.
func ParseBullets(text string, max int) []string {
	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		bullets = append(bullets, line)
		if max > 0 && len(bullets) == max {
			break
		}
	}
	return bullets
}

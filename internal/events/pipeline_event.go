package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventDebug   EventType = "debug"
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

// Event names, one per pipeline stage.
const (
	StageCollect   = "events:pipeline:collect"
	StageDiff      = "events:pipeline:diff"
	StageSummarize = "events:pipeline:summarize"
	StageWrite     = "events:pipeline:write"
	StageLedger    = "events:pipeline:ledger"
	StageDone      = "events:pipeline:done"
)

// PipelineEvent is the payload published for every notable pipeline step.
type PipelineEvent struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	RunKey    string            `json:"runKey,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type contextKey string

const runContextKey contextKey = "tagnotes/events/run"

// WithRun returns a derived context annotated with the given run key
// so emitters can automatically scope payloads.
func WithRun(ctx context.Context, runKey string) context.Context {
	if strings.TrimSpace(runKey) == "" {
		return ctx
	}
	return context.WithValue(ctx, runContextKey, runKey)
}

// RunFromContext extracts the run key associated with ctx.
func RunFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runContextKey).(string); ok {
		return v
	}
	return ""
}

func CreateEvent(eventType EventType, message string) PipelineEvent {
	return PipelineEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// With returns a copy of the event carrying an extra metadata pair.
func (e PipelineEvent) With(key, value string) PipelineEvent {
	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	e.Metadata = meta
	return e
}

func NewDebug(message string) PipelineEvent {
	return CreateEvent(EventDebug, message)
}

// NewInfo creates an info PipelineEvent.
func NewInfo(message string) PipelineEvent {
	return CreateEvent(EventInfo, message)
}

// NewWarn creates a warn PipelineEvent.
func NewWarn(message string) PipelineEvent {
	return CreateEvent(EventWarn, message)
}

// NewError creates an error PipelineEvent.
func NewError(message string) PipelineEvent {
	return CreateEvent(EventError, message)
}

// NewSuccess creates a success PipelineEvent.
func NewSuccess(message string) PipelineEvent {
	return CreateEvent(EventSuccess, message)
}

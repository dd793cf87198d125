package events

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Emit publishes a pipeline event. It is a no-op until an emitter is enabled.
var Emit = func(ctx context.Context, name string, evt PipelineEvent) {}

// EnableLogEmitter routes every event to logger.
func EnableLogEmitter(logger *logrus.Logger) {
	Emit = func(ctx context.Context, name string, evt PipelineEvent) {
		if evt.RunKey == "" {
			evt.RunKey = RunFromContext(ctx)
		}
		logEvent(logger, name, evt)
	}
}

func SetCustomEmitter(f func(ctx context.Context, name string, evt PipelineEvent)) {
	if f == nil {
		Emit = func(context.Context, string, PipelineEvent) {}
		return
	}
	Emit = func(ctx context.Context, name string, evt PipelineEvent) {
		if evt.RunKey == "" {
			if run := RunFromContext(ctx); run != "" {
				evt.RunKey = run
			}
		}
		f(ctx, name, evt)
	}
}

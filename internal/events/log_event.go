package events

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(out io.Writer, level string, jsonOutput bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if jsonOutput {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:          true,
			DisableLevelTruncation: true,
		})
	}
	return logger
}

func logEvent(logger *logrus.Logger, name string, event PipelineEvent) {
	fields := logrus.Fields{"event": strings.TrimPrefix(name, "events:pipeline:")}
	if event.RunKey != "" {
		fields["run"] = event.RunKey
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}
	entry := logger.WithFields(fields)

	switch event.Type {
	case EventDebug:
		entry.Debug(event.Message)
	case EventWarn:
		entry.Warn(event.Message)
	case EventError:
		entry.Error(event.Message)
	default:
		entry.Info(event.Message)
	}
}

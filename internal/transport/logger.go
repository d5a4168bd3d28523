package transport

import (
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

type leveledLogger struct {
	logger zerolog.Logger
}

// NewLeveledLogger routes retryablehttp's logging into zerolog. Request
// level chatter is demoted to trace.
func NewLeveledLogger(logger zerolog.Logger) retryablehttp.LeveledLogger {
	return leveledLogger{logger: logger}
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Trace().Fields(keysAndValues).Msg(msg)
}

package mongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

type logSink struct {
	logger *zap.Logger
}

// NewLogSink adapts a zap logger to the driver's LogSink. Driver level 1 is
// info; anything more verbose goes to debug.
func NewLogSink(logger *zap.Logger) options.LogSink {
	return &logSink{logger: logger}
}

func (l *logSink) Info(level int, message string, keysAndValues ...any) {
	fields := kvFields(keysAndValues)
	if level >= 2 {
		l.logger.Debug(message, fields...)
		return
	}
	l.logger.Info(message, fields...)
}

func (l *logSink) Error(err error, message string, keysAndValues ...any) {
	fields := append([]zap.Field{zap.Error(err)}, kvFields(keysAndValues)...)
	l.logger.Error(message, fields...)
}

func kvFields(keysAndValues []any) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

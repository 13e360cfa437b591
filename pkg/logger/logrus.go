package logger

import "github.com/sirupsen/logrus"

// LogrusLogger adapts a logrus logger to the Logger interface. The
// daemon uses it so log output carries timestamps and levels.
type LogrusLogger struct {
	logger *logrus.Logger
}

// NewLogrusLogger wraps l; pass logrus.StandardLogger() for the default
// setup.
func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{logger: l}
}

func (l *LogrusLogger) Info(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *LogrusLogger) Warning(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *LogrusLogger) Error(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *LogrusLogger) Close() error { return nil }

var _ Logger = (*LogrusLogger)(nil)

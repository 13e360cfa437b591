// Package logger defines the logging interface shared by all coursedl
// components, with console, logrus and test-friendly backends.
package logger

import (
	"fmt"
	"log"
)

// Logger is the minimal logging surface used across the daemon, the
// scheduler and the CLI.
type Logger interface {
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
	// Close releases backend resources; safe to call multiple times.
	Close() error
}

// StandardLogger wraps a stdlib *log.Logger with level prefixes.
type StandardLogger struct {
	logger *log.Logger
}

// NewStandardLogger wraps l; pass log.Default() for plain console output.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

func (s *StandardLogger) Close() error { return nil }

// NopLogger discards everything. Useful in tests and for optional
// logging parameters.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

// MockLogger records every call for assertion in tests.
type MockLogger struct {
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

func NewMockLogger() *MockLogger { return &MockLogger{} }

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.InfoCalls = append(m.InfoCalls, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.WarningCalls = append(m.WarningCalls, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.ErrorCalls = append(m.ErrorCalls, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Close() error {
	m.CloseCalled = true
	return nil
}

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
	_ Logger = (*MockLogger)(nil)
)

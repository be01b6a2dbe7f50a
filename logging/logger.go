// Package logging provides structured logging for authentication flow
// events. It defines a Logger interface and implementations for JSON
// output and no-op logging.
package logging

import (
	"encoding/json"
	"io"
	"time"
)

// FlowLogEntry describes one event in an authentication attempt.
// One entry is emitted per state transition and per routed message,
// so a full attempt reads as a short sequence of lines.
type FlowLogEntry struct {
	// Time is when the event occurred, RFC 3339 UTC.
	Time string `json:"time"`

	// Event names what happened, e.g. "session_opened", "message_routed",
	// "session_resolved", "logout".
	Event string `json:"event"`

	// Platform is the detected platform variant, if known.
	Platform string `json:"platform,omitempty"`

	// GameID is the application identifier of the attempt.
	GameID string `json:"gameId,omitempty"`

	// Outcome is the terminal outcome, for resolution events.
	Outcome string `json:"outcome,omitempty"`

	// Error carries the error text for failure events.
	Error string `json:"error,omitempty"`
}

// NewFlowLogEntry creates an entry stamped with the current time.
func NewFlowLogEntry(event string) FlowLogEntry {
	return FlowLogEntry{
		Time:  time.Now().UTC().Format(time.RFC3339),
		Event: event,
	}
}

// Logger defines the interface for logging authentication flow events.
type Logger interface {
	// LogFlow logs a flow entry.
	LogFlow(entry FlowLogEntry)
}

// JSONLogger implements Logger with JSON Lines output.
// Each entry is written as a single line of JSON suitable for log aggregation.
type JSONLogger struct {
	writer io.Writer
}

// NewJSONLogger creates a new JSONLogger that writes to the given writer.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{writer: w}
}

// LogFlow writes the entry as a single line of JSON.
func (l *JSONLogger) LogFlow(entry FlowLogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	l.writer.Write(data)
	l.writer.Write([]byte("\n"))
}

// NopLogger implements Logger but discards all entries.
// Useful for testing or when logging is disabled.
type NopLogger struct{}

// NewNopLogger creates a new NopLogger that discards all entries.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

// LogFlow discards the entry.
func (l *NopLogger) LogFlow(entry FlowLogEntry) {
	// Intentionally empty - discards all entries
}

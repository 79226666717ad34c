package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds run-scoped logging context threaded through a single
// `bt` invocation: which host and operation is running, and since when.
type LogContext struct {
	HostID    string    // this host's configured UUID
	Operation string    // top-level command: backup, stage, restore, status...
	OpUUID    string    // staging operation UUID, when one is in flight
	StartTime time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a command run against hostID.
func NewLogContext(hostID string) *LogContext {
	return &LogContext{
		HostID:    hostID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		HostID:    lc.HostID,
		Operation: lc.Operation,
		OpUUID:    lc.OpUUID,
		StartTime: lc.StartTime,
	}
}

// WithOperation returns a copy with the operation set
func (lc *LogContext) WithOperation(operation string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Operation = operation
	}
	return clone
}

// WithOpUUID returns a copy with the staging operation UUID set
func (lc *LogContext) WithOpUUID(opUUID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.OpUUID = opUUID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}

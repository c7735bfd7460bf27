package sink

import (
	"context"
	"sort"

	authstate "github.com/goliatone/go-authstate"
)

// LoggerSink writes every sink call to a structured logger. Tracked events
// are logged at a level derived from their severity.
type LoggerSink struct {
	logger authstate.Logger
}

var _ authstate.EventSink = (*LoggerSink)(nil)

// NewLoggerSink builds a LoggerSink. A nil logger falls back to a glog logger
// named "authstate.sink".
func NewLoggerSink(logger authstate.Logger) *LoggerSink {
	_, logger = authstate.ResolveLogger("authstate.sink", nil, logger)
	return &LoggerSink{logger: logger}
}

// Identify implements authstate.EventSink.
func (s *LoggerSink) Identify(_ context.Context, userID, name, email string) error {
	s.logger.Info("auth identify", "user_id", userID, "name", name, "email", email)
	return nil
}

// SetProperties implements authstate.EventSink.
func (s *LoggerSink) SetProperties(_ context.Context, properties map[string]any, highPriority bool) error {
	args := append([]any{"high_priority", highPriority}, flatten(properties)...)
	s.logger.Debug("auth user properties", args...)
	return nil
}

// Track implements authstate.EventSink.
func (s *LoggerSink) Track(_ context.Context, event authstate.Event) error {
	args := append([]any{"event", event.Name, "severity", string(event.Severity)}, flatten(event.Parameters)...)

	switch event.Severity {
	case authstate.SeveritySevere:
		s.logger.Error("auth event", args...)
	case authstate.SeverityWarning:
		s.logger.Warn("auth event", args...)
	default:
		s.logger.Info("auth event", args...)
	}
	return nil
}

// flatten turns a map into sorted key/value pairs.
func flatten(params map[string]any) []any {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, params[k])
	}
	return out
}

// Package otelsink records auth events as OpenTelemetry span events.
package otelsink

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	authstate "github.com/goliatone/go-authstate"
)

const (
	instrumentationName = "github.com/goliatone/go-authstate/sink/otelsink"

	attrUserID    = "enduser.id"
	attrSeverity  = "auth.severity"
	attrPrefix    = "auth."
	errorDescKey  = "error_description"
	defaultStatus = "auth event failed"
)

// Option configures a Sink.
type Option func(*Sink)

// WithTracerProvider sets the provider used to open a span when the context
// carries none. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Sink) {
		if tp != nil {
			s.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// Sink implements authstate.EventSink on top of the active span.
type Sink struct {
	tracer trace.Tracer
}

var _ authstate.EventSink = (*Sink)(nil)

// New builds a Sink.
func New(opts ...Option) *Sink {
	s := &Sink{
		tracer: otel.GetTracerProvider().Tracer(instrumentationName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Identify tags the active span with the user id.
func (s *Sink) Identify(ctx context.Context, userID, _, _ string) error {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.String(attrUserID, userID))
	}
	return nil
}

// SetProperties copies the properties onto the active span.
func (s *Sink) SetProperties(ctx context.Context, properties map[string]any, _ bool) error {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attributes(attrPrefix, properties)...)
	}
	return nil
}

// Track adds the event to the active span. Without one, a short span named
// after the event is started and ended around it. Severe events mark the
// span as failed.
func (s *Sink) Track(ctx context.Context, event authstate.Event) error {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		_, span = s.tracer.Start(ctx, event.Name)
		defer span.End()
	}

	attrs := append(attributes("", event.Parameters), attribute.String(attrSeverity, string(event.Severity)))

	eventOpts := []trace.EventOption{trace.WithAttributes(attrs...)}
	if !event.OccurredAt.IsZero() {
		eventOpts = append(eventOpts, trace.WithTimestamp(event.OccurredAt))
	}
	span.AddEvent(event.Name, eventOpts...)

	if event.Severity == authstate.SeveritySevere {
		desc, _ := event.Parameters[errorDescKey].(string)
		if desc == "" {
			desc = defaultStatus
		}
		span.SetStatus(codes.Error, desc)
	}

	return nil
}

func attributes(prefix string, params map[string]any) []attribute.KeyValue {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, toAttribute(prefix+k, params[k]))
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}

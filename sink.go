package authstate

import (
	"context"
	"errors"
)

// TrackFunc adapts a function to the EventSink interface. Identify and
// SetProperties are no-ops.
type TrackFunc func(ctx context.Context, event Event) error

// Identify implements EventSink.
func (f TrackFunc) Identify(context.Context, string, string, string) error {
	return nil
}

// SetProperties implements EventSink.
func (f TrackFunc) SetProperties(context.Context, map[string]any, bool) error {
	return nil
}

// Track implements EventSink.
func (f TrackFunc) Track(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopEventSink struct{}

func (noopEventSink) Identify(context.Context, string, string, string) error { return nil }

func (noopEventSink) SetProperties(context.Context, map[string]any, bool) error { return nil }

func (noopEventSink) Track(context.Context, Event) error { return nil }

// NoopEventSink returns a sink that drops everything.
func NoopEventSink() EventSink {
	return noopEventSink{}
}

func normalizeEventSink(s EventSink) EventSink {
	if s == nil {
		return noopEventSink{}
	}
	return s
}

type multiSink struct {
	sinks []EventSink
}

// MultiSink fans every call out to each non-nil sink in order. All sinks
// are called even when one fails; the failures are joined.
func MultiSink(sinks ...EventSink) EventSink {
	filtered := make([]EventSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &multiSink{sinks: filtered}
}

func (m *multiSink) Identify(ctx context.Context, userID, name, email string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Identify(ctx, userID, name, email); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *multiSink) SetProperties(ctx context.Context, properties map[string]any, highPriority bool) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.SetProperties(ctx, properties, highPriority); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *multiSink) Track(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Track(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package sentrysink forwards auth events to Sentry. Every event becomes a
// breadcrumb; severe events are also captured as messages.
package sentrysink

import (
	"context"
	"maps"

	"github.com/getsentry/sentry-go"

	authstate "github.com/goliatone/go-authstate"
)

const (
	breadcrumbCategory = "auth"
	contextAuth        = "auth"
	contextEvent       = "auth_event"
	tagEvent           = "auth.event"
)

// Sink implements authstate.EventSink on a Sentry hub.
type Sink struct {
	hub *sentry.Hub
}

var _ authstate.EventSink = (*Sink)(nil)

// New builds a Sink on hub. A nil hub uses sentry.CurrentHub().
func New(hub *sentry.Hub) *Sink {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &Sink{hub: hub}
}

// Identify sets the scope user.
func (s *Sink) Identify(_ context.Context, userID, name, email string) error {
	s.hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{
			ID:       userID,
			Username: name,
			Email:    email,
		})
	})
	return nil
}

// SetProperties stores the properties as the "auth" scope context.
func (s *Sink) SetProperties(_ context.Context, properties map[string]any, _ bool) error {
	s.hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetContext(contextAuth, sentry.Context(maps.Clone(properties)))
	})
	return nil
}

// Track records a breadcrumb and captures severe events.
func (s *Sink) Track(_ context.Context, event authstate.Event) error {
	crumb := &sentry.Breadcrumb{
		Type:     "default",
		Category: breadcrumbCategory,
		Message:  event.Name,
		Data:     maps.Clone(event.Parameters),
		Level:    level(event.Severity),
	}
	if !event.OccurredAt.IsZero() {
		crumb.Timestamp = event.OccurredAt
	}
	s.hub.AddBreadcrumb(crumb, nil)

	if event.Severity != authstate.SeveritySevere {
		return nil
	}

	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag(tagEvent, event.Name)
		if len(event.Parameters) > 0 {
			scope.SetContext(contextEvent, sentry.Context(maps.Clone(event.Parameters)))
		}
		s.hub.CaptureMessage(event.Name)
	})
	return nil
}

func level(severity authstate.Severity) sentry.Level {
	switch severity {
	case authstate.SeveritySevere:
		return sentry.LevelError
	case authstate.SeverityWarning:
		return sentry.LevelWarning
	default:
		return sentry.LevelInfo
	}
}

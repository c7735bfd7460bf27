// Package sink provides authstate.EventSink implementations: an in-memory
// recorder and a structured logger bridge. Backends with external
// dependencies live in subpackages.
package sink

import (
	"context"
	"maps"
	"sync"

	authstate "github.com/goliatone/go-authstate"
)

// Identity is a recorded Identify call.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// PropertySet is a recorded SetProperties call.
type PropertySet struct {
	Properties   map[string]any
	HighPriority bool
}

// Recorder keeps every sink call in memory. Safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	identities []Identity
	properties []PropertySet
	events     []authstate.Event
}

var _ authstate.EventSink = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Identify implements authstate.EventSink.
func (r *Recorder) Identify(_ context.Context, userID, name, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities = append(r.identities, Identity{UserID: userID, Name: name, Email: email})
	return nil
}

// SetProperties implements authstate.EventSink.
func (r *Recorder) SetProperties(_ context.Context, properties map[string]any, highPriority bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties = append(r.properties, PropertySet{Properties: maps.Clone(properties), HighPriority: highPriority})
	return nil
}

// Track implements authstate.EventSink.
func (r *Recorder) Track(_ context.Context, event authstate.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.Parameters = maps.Clone(event.Parameters)
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the tracked events in order.
func (r *Recorder) Events() []authstate.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]authstate.Event(nil), r.events...)
}

// Names returns the tracked event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.events))
	for _, event := range r.events {
		names = append(names, event.Name)
	}
	return names
}

// Count returns how many events named name were tracked.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, event := range r.events {
		if event.Name == name {
			total++
		}
	}
	return total
}

// Last returns the most recent event named name.
func (r *Recorder) Last(name string) (authstate.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			return r.events[i], true
		}
	}
	return authstate.Event{}, false
}

// Identities returns the recorded Identify calls.
func (r *Recorder) Identities() []Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Identity(nil), r.identities...)
}

// Properties returns the recorded SetProperties calls.
func (r *Recorder) Properties() []PropertySet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PropertySet(nil), r.properties...)
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities = nil
	r.properties = nil
	r.events = nil
}

// Package broadcast fans values out to any number of subscribers while
// keeping per-subscriber delivery order identical to publish order.
package broadcast

import (
	"context"
	"sync"
)

// Hub delivers every published value to every live subscriber.
// Each subscriber owns an unbounded queue so Publish never blocks on a
// slow reader and values are never dropped or coalesced.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber[T]
	nextID uint64
	closed bool
}

type subscriber[T any] struct {
	mu     sync.Mutex
	queue  []T
	signal chan struct{}
	stop   chan struct{}
	once   sync.Once
}

// New returns an empty hub.
func New[T any]() *Hub[T] {
	return &Hub[T]{
		subs: make(map[uint64]*subscriber[T]),
	}
}

// Subscribe registers a new subscriber. The returned channel yields the
// initial values first, then every value published after registration.
// It is closed when ctx is done or the hub is closed.
func (h *Hub[T]) Subscribe(ctx context.Context, initial ...T) <-chan T {
	out := make(chan T)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(out)
		return out
	}

	sub := &subscriber[T]{
		queue:  append([]T(nil), initial...),
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	if len(sub.queue) > 0 {
		sub.signal <- struct{}{}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	go h.pump(ctx, id, sub, out)

	return out
}

// Publish enqueues v for every live subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for _, sub := range h.subs {
		sub.push(v)
	}
}

// Len reports the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close stops every subscriber and rejects new ones. Safe to call twice.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, sub := range h.subs {
		sub.close()
		delete(h.subs, id)
	}
}

func (h *Hub[T]) pump(ctx context.Context, id uint64, sub *subscriber[T], out chan<- T) {
	defer func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
		close(out)
	}()

	for {
		v, ok := sub.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-sub.stop:
				return
			case <-sub.signal:
				continue
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-sub.stop:
			return
		case out <- v:
		}
	}
}

func (s *subscriber[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if len(s.queue) == 0 {
		return zero, false
	}

	v := s.queue[0]
	s.queue[0] = zero
	s.queue = s.queue[1:]
	return v, true
}

func (s *subscriber[T]) close() {
	s.once.Do(func() {
		close(s.stop)
	})
}

package authstate

import (
	"context"
)

type listener struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Resubscribe replaces the push listener. The previous listener is
// cancelled and fully stopped before the new one subscribes, and anything
// it would still deliver is discarded. Safe to call repeatedly.
func (m *Manager) Resubscribe() {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()

	m.stopListenerLocked()
	if m.closed {
		return
	}
	m.startListenerLocked()
}

// Close stops the push listener and closes every Watch channel.
func (m *Manager) Close() error {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	m.stopListenerLocked()
	m.watchers.Close()

	return nil
}

func (m *Manager) startListenerLocked() {
	ctx, cancel := context.WithCancel(context.Background())

	m.publishMu.Lock()
	generation := m.generation
	m.publishMu.Unlock()

	l := &listener{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.listener = l

	stream := m.provider.Subscribe(ctx)
	m.logger.Debug("auth listener attached", "generation", generation)

	go m.listen(ctx, generation, stream, l.done)
}

func (m *Manager) stopListenerLocked() {
	if m.listener == nil {
		return
	}

	m.publishMu.Lock()
	m.generation++
	m.publishMu.Unlock()

	m.listener.cancel()
	<-m.listener.done
	m.listener = nil
}

func (m *Manager) listen(ctx context.Context, generation uint64, stream <-chan *User, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case user, ok := <-stream:
			if !ok {
				m.logger.Debug("auth listener stream closed", "generation", generation)
				return
			}
			if !m.publishFrom(generation, user) {
				return
			}
		}
	}
}

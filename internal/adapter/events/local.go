// internal/adapter/events/local.go

package events

import (
	"sync"

	"propmap/internal/domain/temporal"
)

// LocalBus is an in-process event bus used when no NATS server is configured.
// Handlers run synchronously on the publishing goroutine.
type LocalBus struct {
	subs   map[string]map[uint64]func([]byte)
	nextID uint64
	mu     sync.RWMutex
}

// NewLocalBus creates an empty in-process bus
func NewLocalBus() *LocalBus {
	return &LocalBus{
		subs: make(map[string]map[uint64]func([]byte)),
	}
}

// Publish delivers data to every handler subscribed to subject
func (b *LocalBus) Publish(subject string, data []byte) error {
	b.mu.RLock()
	handlers := make([]func([]byte), 0, len(b.subs[subject]))
	for _, h := range b.subs[subject] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}

// Subscribe registers handler for messages on subject
func (b *LocalBus) Subscribe(subject string, handler func(data []byte)) (temporal.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[subject] == nil {
		b.subs[subject] = make(map[uint64]func([]byte))
	}
	b.subs[subject][id] = handler

	return &localSubscription{bus: b, subject: subject, id: id}, nil
}

// Subscribers returns the number of handlers on subject
func (b *LocalBus) Subscribers(subject string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[subject])
}

type localSubscription struct {
	bus     *LocalBus
	subject string
	id      uint64
	once    sync.Once
}

func (s *localSubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()

		delete(s.bus.subs[s.subject], s.id)
		if len(s.bus.subs[s.subject]) == 0 {
			delete(s.bus.subs, s.subject)
		}
	})
	return nil
}

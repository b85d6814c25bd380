package testutil

import (
	"context"
	"sync"

	"github.com/splitsub/splitsub/internal/domain/webhookevent"
)

// InMemoryWebhookEventStore is an in-memory implementation of
// webhookevent.Repository
type InMemoryWebhookEventStore struct {
	mu     sync.Mutex
	events map[string]*webhookevent.Event
}

func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{events: make(map[string]*webhookevent.Event)}
}

func (s *InMemoryWebhookEventStore) MarkProcessed(ctx context.Context, event *webhookevent.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.ID]; exists {
		return false, nil
	}
	clone := *event
	s.events[event.ID] = &clone
	return true, nil
}

func (s *InMemoryWebhookEventStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string]*webhookevent.Event)
}

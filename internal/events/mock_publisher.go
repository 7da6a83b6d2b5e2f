package events

import (
	"context"
	"log/slog"
	"sync"
)

// MockEventPublisher records events instead of sending them
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	err    error
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

// FailWith makes every following publish return err
func (m *MockEventPublisher) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockEventPublisher) PublishProfileUpdated(_ context.Context, event ProfileUpdatedEvent) error {
	return m.record(newEvent(EventUserProfileUpdated, event))
}

func (m *MockEventPublisher) PublishRoleChanged(_ context.Context, event RoleChangedEvent) error {
	return m.record(newEvent(EventUserRoleChanged, event))
}

func (m *MockEventPublisher) record(event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	m.logger.Debug("Mock event recorded", "type", event.Type)
	return nil
}

func (m *MockEventPublisher) GetPublishedEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

func (m *MockEventPublisher) Close() error { return nil }

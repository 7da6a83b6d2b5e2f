package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/profile-service/internal/models"
)

const (
	// EventSource identifies this service on the bus
	EventSource = "profile-service"
	// EventVersion is the envelope schema version
	EventVersion = "1.0"
)

const (
	EventUserProfileUpdated = "user.profile_updated"
	EventUserRoleChanged    = "user.role_changed"
)

// Event is the envelope every message on the bus carries
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// ProfileUpdatedEvent is published after a successful profile write
type ProfileUpdatedEvent struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Name   string          `json:"name"`
	Role   models.UserRole `json:"role"`
}

// RoleChangedEvent is published only when the stored role actually changed
type RoleChangedEvent struct {
	UserID       string          `json:"user_id"`
	Email        string          `json:"email"`
	PreviousRole models.UserRole `json:"previous_role"`
	NewRole      models.UserRole `json:"new_role"`
	ChangedBy    string          `json:"changed_by"`
}

// EventPublisher sends domain events to the bus
type EventPublisher interface {
	PublishProfileUpdated(ctx context.Context, event ProfileUpdatedEvent) error
	PublishRoleChanged(ctx context.Context, event RoleChangedEvent) error
	Close() error
}

func newEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

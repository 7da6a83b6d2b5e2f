package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/profile-service/internal/config"
	"github.com/SAP-F-2025/profile-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatermillEventPublisher_RoleChanged(t *testing.T) {
	publisher, pubSub := NewInProcessEventPublisher("user-events", testLogger())
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "user-events")
	require.NoError(t, err)

	err = publisher.PublishRoleChanged(ctx, RoleChangedEvent{
		UserID:       "u-1",
		Email:        "a@x.io",
		PreviousRole: models.RoleStudent,
		NewRole:      models.RoleTeacher,
		ChangedBy:    "u-1",
	})
	require.NoError(t, err)

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, EventUserRoleChanged, msg.Metadata.Get("event_type"))
		assert.Equal(t, "u-1", msg.Metadata.Get("partition_key"))

		var envelope struct {
			Type    string           `json:"type"`
			Source  string           `json:"source"`
			Version string           `json:"version"`
			Data    RoleChangedEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &envelope))
		assert.Equal(t, EventSource, envelope.Source)
		assert.Equal(t, EventVersion, envelope.Version)
		assert.Equal(t, models.RoleTeacher, envelope.Data.NewRole)
		assert.Equal(t, models.RoleStudent, envelope.Data.PreviousRole)
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestNewEventPublisher_FallsBackInProcess(t *testing.T) {
	publisher, err := NewEventPublisher(config.EventsConfig{Topic: "user-events"}, testLogger())
	require.NoError(t, err)
	defer publisher.Close()

	// Nobody subscribes; the in-process bus drops the message without error
	assert.NoError(t, publisher.PublishProfileUpdated(context.Background(), ProfileUpdatedEvent{UserID: "u-1"}))
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	require.NoError(t, mock.PublishProfileUpdated(ctx, ProfileUpdatedEvent{UserID: "u-1", Name: "Ann"}))

	published := mock.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, EventUserProfileUpdated, published[0].Type)
	assert.NotEmpty(t, published[0].ID)
	assert.False(t, published[0].Timestamp.IsZero())

	mock.ClearEvents()
	assert.Empty(t, mock.GetPublishedEvents())

	mock.FailWith(errors.New("bus down"))
	assert.Error(t, mock.PublishRoleChanged(ctx, RoleChangedEvent{UserID: "u-1"}))
	assert.Empty(t, mock.GetPublishedEvents())
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/SAP-F-2025/profile-service/internal/config"
)

// WatermillEventPublisher marshals events to JSON and hands them to a watermill publisher
type WatermillEventPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewWatermillEventPublisher(publisher message.Publisher, topic string, logger *slog.Logger) *WatermillEventPublisher {
	return &WatermillEventPublisher{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

// NewKafkaEventPublisher connects to the configured Kafka brokers
func NewKafkaEventPublisher(cfg config.EventsConfig, logger *slog.Logger) (*WatermillEventPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return NewWatermillEventPublisher(publisher, cfg.Topic, logger), nil
}

// NewInProcessEventPublisher publishes onto an in-memory channel; used when no brokers are configured
func NewInProcessEventPublisher(topic string, logger *slog.Logger) (*WatermillEventPublisher, *gochannel.GoChannel) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
	return NewWatermillEventPublisher(pubSub, topic, logger), pubSub
}

// NewEventPublisher picks Kafka when brokers are configured and the in-process bus otherwise
func NewEventPublisher(cfg config.EventsConfig, logger *slog.Logger) (EventPublisher, error) {
	if len(cfg.KafkaBrokers) > 0 {
		return NewKafkaEventPublisher(cfg, logger)
	}

	logger.Info("No Kafka brokers configured, publishing events in-process")
	publisher, _ := NewInProcessEventPublisher(cfg.Topic, logger)
	return publisher, nil
}

func (p *WatermillEventPublisher) PublishProfileUpdated(ctx context.Context, event ProfileUpdatedEvent) error {
	return p.publish(ctx, newEvent(EventUserProfileUpdated, event), event.UserID)
}

func (p *WatermillEventPublisher) PublishRoleChanged(ctx context.Context, event RoleChangedEvent) error {
	return p.publish(ctx, newEvent(EventUserRoleChanged, event), event.UserID)
}

func (p *WatermillEventPublisher) publish(ctx context.Context, event *Event, partitionKey string) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("partition_key", partitionKey)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	p.logger.DebugContext(ctx, "Event published", "type", event.Type, "event_id", event.ID)
	return nil
}

func (p *WatermillEventPublisher) Close() error {
	return p.publisher.Close()
}

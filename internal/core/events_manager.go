package core

import (
	"fmt"

	"authgate/internal/configuration"
	"authgate/internal/messaging"
	"authgate/internal/models"

	"go.uber.org/zap"
)

// EventsManager owns the publisher and subscriber of the auth state topic.
type EventsManager struct {
	publisher  messaging.IPublisher
	subscriber messaging.ISubscriber
	config     models.EventsConfiguration
}

func NewEventsManager(config models.EventsConfiguration, instanceID string) (*EventsManager, error) {
	manager := &EventsManager{config: config}

	switch config.Type {
	case configuration.ProviderJetstream:
		publisher, err := messaging.NewJetStreamPublisher(config.Jetstream, config.Topic)
		if err != nil {
			return nil, err
		}
		subscriber, err := messaging.NewJetStreamSubscriber(config.Jetstream, config.Topic, instanceID)
		if err != nil {
			_ = publisher.Close()
			return nil, err
		}
		manager.publisher = publisher
		manager.subscriber = subscriber
	case configuration.ProviderMemory:
		// The publisher and subscriber must share the same GoChannel.
		ch := messaging.NewMemoryChannel()
		manager.publisher = messaging.NewMemoryPublisher(ch, config.Topic)
		manager.subscriber = messaging.NewMemorySubscriber(ch, config.Topic)
	default:
		return nil, fmt.Errorf("unsupported events type %q", config.Type)
	}

	zap.L().Info("Initialized event bus",
		zap.String("topic_name", config.Topic),
		zap.String("provider", config.Type))

	return manager, nil
}

func (em *EventsManager) Publisher() messaging.IPublisher {
	return em.publisher
}

func (em *EventsManager) Subscriber() messaging.ISubscriber {
	return em.subscriber
}

func (em *EventsManager) Close() {
	if err := em.publisher.Close(); err != nil {
		zap.L().Error("Failed to close publisher", zap.String("topic_name", em.config.Topic), zap.Error(err))
	}
	if err := em.subscriber.Close(); err != nil {
		zap.L().Error("Failed to close subscriber", zap.String("topic_name", em.config.Topic), zap.Error(err))
	}
}

package provider

import (
	"context"
	"encoding/json"

	"authgate/internal/configuration"
	"authgate/internal/messaging"
	"authgate/internal/models"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// emit notifies local listeners first, then the other instances.
func (c *Client) emit(event models.AuthChangeEvent, browserID string, session *models.Session) {
	c.hub.Notify(event, browserID, session)

	if c.publisher == nil {
		return
	}

	change := models.AuthStateChange{Event: event, BrowserID: browserID}
	if session != nil {
		user := session.User
		change.User = &user
	}

	payload, err := json.Marshal(change)
	if err != nil {
		zap.L().Error("Failed to encode auth state change", zap.Error(err))
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(configuration.EventsMetadataInstanceID, c.instanceID)
	if err = c.publisher.Publish(msg); err != nil {
		zap.L().Warn("Failed to publish auth state change",
			zap.String("event", string(event)),
			zap.String("browser_id", browserID),
			zap.Error(err))
	}
}

// Listen relays auth state changes emitted by other instances to local listeners until ctx is done.
func (c *Client) Listen(ctx context.Context, subscriber messaging.ISubscriber) error {
	messages, err := subscriber.Subscribe(ctx)
	if err != nil {
		return err
	}

	c.Relay(messages)
	return nil
}

// Relay consumes messages until the channel is closed.
func (c *Client) Relay(messages <-chan *message.Message) {
	for msg := range messages {
		c.relay(msg)
		msg.Ack()
	}
}

func (c *Client) relay(msg *message.Message) {
	if msg.Metadata.Get(configuration.EventsMetadataInstanceID) == c.instanceID {
		return
	}

	var change models.AuthStateChange
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		zap.L().Warn("Dropping malformed auth state change", zap.String("uuid", msg.UUID), zap.Error(err))
		return
	}

	var session *models.Session
	if change.User != nil {
		session = &models.Session{User: *change.User}
	}
	c.hub.Notify(change.Event, change.BrowserID, session)
}

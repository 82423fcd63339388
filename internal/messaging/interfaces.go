package messaging

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisher interface {
	Publish(messages ...*message.Message) error
	Close() error
}

type ISubscriber interface {
	// Subscribe returns a channel closed when ctx is done or the subscriber is closed.
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
	Close() error
}

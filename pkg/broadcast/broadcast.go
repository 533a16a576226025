package broadcast

import (
	"context"
	"sync"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// Subscriber receives the in-app notifications of one recipient.
// Implementations must be safe for concurrent use.
type Subscriber interface {
	// Receive returns the channel records are delivered on. It is closed
	// after Close or when the subscription context ends.
	Receive() <-chan notifications.Record

	// Close releases the subscription. Idempotent.
	Close() error
}

// Hub fans created records out to the live subscribers of their recipient.
// Slow subscribers lose messages rather than blocking publishers.
type Hub interface {
	notifications.InAppPublisher

	// Subscribe registers a subscriber for recipientID. The subscription
	// ends when ctx is cancelled.
	Subscribe(ctx context.Context, recipientID string) (Subscriber, error)

	// Close shuts the hub down and closes every subscriber.
	Close() error
}

type subscriber struct {
	ch       chan notifications.Record
	closed   bool
	mu       sync.RWMutex
	onClose  func()
	stopOnce sync.Once
}

func newSubscriber(bufferSize int, onClose func()) *subscriber {
	return &subscriber{
		ch:      make(chan notifications.Record, bufferSize),
		onClose: onClose,
	}
}

func (s *subscriber) Receive() <-chan notifications.Record {
	return s.ch
}

func (s *subscriber) Close() error {
	s.mu.Lock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	s.mu.Unlock()

	if s.onClose != nil {
		s.stopOnce.Do(s.onClose)
	}
	return nil
}

// send is non-blocking; false means the message was dropped.
func (s *subscriber) send(rec notifications.Record) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- rec:
		return true
	default:
		return false
	}
}

package broadcast

import (
	"context"
	"sync"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// MemoryHub is a process-local Hub.
type MemoryHub struct {
	subscribers map[string]map[*subscriber]struct{} // recipientID -> subscribers
	bufferSize  int
	closed      bool
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
	done        chan struct{}
}

// NewMemoryHub creates a hub whose subscribers buffer up to bufferSize
// records. A minimum of 1 is enforced.
func NewMemoryHub(bufferSize int) *MemoryHub {
	return &MemoryHub{
		subscribers: make(map[string]map[*subscriber]struct{}),
		bufferSize:  max(bufferSize, 1),
		done:        make(chan struct{}),
	}
}

// Subscribe registers a subscriber for recipientID. On a closed hub it
// returns an already closed subscriber and ErrHubClosed.
func (h *MemoryHub) Subscribe(ctx context.Context, recipientID string) (Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub := newSubscriber(h.bufferSize, nil)
		_ = sub.Close()
		return sub, ErrHubClosed
	}

	stop := make(chan struct{})
	var sub *subscriber
	sub = newSubscriber(h.bufferSize, func() {
		close(stop)
		h.remove(recipientID, sub)
	})
	if h.subscribers[recipientID] == nil {
		h.subscribers[recipientID] = make(map[*subscriber]struct{})
	}
	h.subscribers[recipientID][sub] = struct{}{}

	if ctx.Done() != nil {
		h.cleanupWg.Add(1)
		go func() {
			defer h.cleanupWg.Done()
			select {
			case <-ctx.Done():
				_ = sub.Close()
			case <-stop:
			case <-h.done:
			}
		}()
	}

	return sub, nil
}

// Publish delivers rec to the subscribers of rec.RecipientID. Subscribers
// with a full buffer are dropped.
func (h *MemoryHub) Publish(ctx context.Context, rec notifications.Record) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}

	for sub := range h.subscribers[rec.RecipientID] {
		if !sub.send(rec) {
			go sub.Close()
		}
	}
	return nil
}

// SubscriberCount returns the number of live subscribers for recipientID.
func (h *MemoryHub) SubscriberCount(recipientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[recipientID])
}

// Close is safe to call multiple times.
func (h *MemoryHub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.done)

	var subs []*subscriber
	for _, byRecipient := range h.subscribers {
		for sub := range byRecipient {
			subs = append(subs, sub)
		}
	}
	clear(h.subscribers)
	h.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	h.cleanupWg.Wait()
	return nil
}

// remove is the subscriber's onClose. Callers must not hold h.mu.
func (h *MemoryHub) remove(recipientID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.subscribers[recipientID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, recipientID)
		}
	}
}

// Package broadcast delivers freshly created in-app notifications to live
// subscribers, keyed by recipient.
//
// Both hubs implement notifications.InAppPublisher and plug into the
// orchestrator:
//
//	hub := broadcast.NewMemoryHub(16)
//	defer hub.Close()
//
//	orch := notifications.New(storage, directory, email, sms,
//	    notifications.WithInAppPublisher(hub),
//	)
//
//	sub, err := hub.Subscribe(r.Context(), userID)
//	if err != nil {
//	    return err
//	}
//	defer sub.Close()
//
//	for rec := range sub.Receive() {
//	    // write an SSE event
//	}
//
// MemoryHub works inside one process. RedisHub uses Redis pub/sub so any
// instance can publish to subscribers held by any other.
//
// Delivery is best effort. A subscriber whose buffer is full loses the
// message; the stored record remains the source of truth.
package broadcast

// Package notifications routes and delivers user notifications across the
// in-app, email, SMS and push channels.
//
// # Architecture
//
//   - Route: pure channel selection from type, priority and preferences
//   - PreferenceResolver: derives preferences from a UserDirectory
//   - Dispatcher: concurrent per-channel delivery with isolated failures
//   - Orchestrator: resolve, route, persist, dispatch and mark as sent
//
// Storage, UserDirectory and the transports are interfaces. MemoryStorage and
// MemoryDirectory are provided for tests and development; production adapters
// live in pkg/storage and the transport packages.
//
// # Basic Usage
//
//	orch := notifications.New(storage, directory, emailTransport, smsTransport,
//	    notifications.WithPushTransport(pushTransport),
//	    notifications.WithLogger(log),
//	)
//
//	res := orch.Send(ctx, notifications.Request{
//	    RecipientID: "user123",
//	    Type:        notifications.TypeBillDue,
//	    Title:       "Rent due",
//	    Message:     "Your rent is due tomorrow",
//	    Priority:    notifications.PriorityHigh,
//	    Data:        map[string]any{"amount": 1200.0, "dueDate": "2024-05-01"},
//	})
//	if !res.Success {
//	    // every channel failed or the record could not be stored
//	}
//
// Send never returns an error. Per-channel failures are reported in
// DeliveryResult.Outcomes, in the same order as the selected channels.
//
// # Shared instance
//
// Init configures a process-wide orchestrator; Shared returns it or
// ErrConfiguration. New is preferred for multi-tenant setups.
package notifications

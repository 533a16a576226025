// Package digest turns a recipient's backlog of unsent notifications into
// either individual sends or a single digest per group.
//
// The backlog is the oldest unread, unsent and due records of a recipient,
// at most Config.BatchLimit of them. Records are grouped by type (or by
// priority). A group with more than Config.MaxNotifications records produces
// one system notification sent on Config.Channels:
//
//	📄 6 new notifications
//
//	You have 6 bills due soon
//
//	• Rent
//	• Electricity
//	• Internet
//	... and 3 more
//
// All records of the group are then marked as sent. Smaller groups are sent
// one record at a time with medium priority and marked sent individually.
//
// Usage:
//
//	var cfg digest.Config
//	config.MustLoad(&cfg)
//
//	engine := digest.New(storage, orchestrator, digest.WithConfig(cfg))
//	if err := engine.ProcessMany(ctx, recipientIDs); err != nil {
//	    log.Warn("some digests failed", logger.Error(err))
//	}
package digest

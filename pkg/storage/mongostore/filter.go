package mongostore

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

func filterDoc(f notifications.Filter) bson.D {
	doc := bson.D{}
	if len(f.IDs) > 0 {
		doc = append(doc, bson.E{Key: "_id", Value: bson.D{{Key: "$in", Value: f.IDs}}})
	}
	if f.RecipientID != "" {
		doc = append(doc, bson.E{Key: "recipient_id", Value: f.RecipientID})
	}
	if f.Unread {
		doc = append(doc, bson.E{Key: "read", Value: false})
	}
	if f.Unsent {
		// matches both null and missing
		doc = append(doc, bson.E{Key: "sent_at", Value: nil})
	}
	if f.ScheduledBefore != nil {
		doc = append(doc, bson.E{Key: "scheduled_at", Value: bson.D{{Key: "$lte", Value: *f.ScheduledBefore}}})
	}
	return doc
}

// updateDoc returns nil when changes touch nothing.
func updateDoc(c notifications.Changes) bson.D {
	set := bson.D{}
	switch {
	case c.SentAt != nil:
		set = append(set, bson.E{Key: "sent_at", Value: *c.SentAt})
	case c.ClearSentAt:
		set = append(set, bson.E{Key: "sent_at", Value: nil})
	}
	if c.Read != nil {
		set = append(set, bson.E{Key: "read", Value: *c.Read})
	}
	if len(set) == 0 {
		return nil
	}
	return bson.D{{Key: "$set", Value: set}}
}

func sortDoc(o notifications.Order) bson.D {
	dir := 1
	if o == notifications.OrderCreatedDesc {
		dir = -1
	}
	return bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}
}

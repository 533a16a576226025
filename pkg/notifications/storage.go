package notifications

import (
	"context"
	"time"
)

// Storage persists notification records.
type Storage interface {
	// Create stores a new record and returns it with ID and CreatedAt filled in.
	Create(ctx context.Context, rec Record) (Record, error)

	// Find returns records matching filter.
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]Record, error)

	// Count returns the number of records matching filter.
	Count(ctx context.Context, filter Filter) (int, error)

	// FindOne returns the first record matching filter or ErrNotificationNotFound.
	FindOne(ctx context.Context, filter Filter) (*Record, error)

	// Update applies changes to the single record matching filter.
	Update(ctx context.Context, filter Filter, changes Changes) error

	// UpdateMany applies changes to every record matching filter.
	UpdateMany(ctx context.Context, filter Filter, changes Changes) error
}

// Filter selects records. Zero fields do not constrain the match.
type Filter struct {
	IDs         []string
	RecipientID string
	// Unread restricts to records with Read == false.
	Unread bool
	// Unsent restricts to records with SentAt == nil.
	Unsent bool
	// ScheduledBefore restricts to records with ScheduledAt <= the given time.
	ScheduledBefore *time.Time
}

// Match reports whether rec satisfies the filter.
func (f Filter) Match(rec Record) bool {
	if len(f.IDs) > 0 && !containsString(f.IDs, rec.ID) {
		return false
	}
	if f.RecipientID != "" && rec.RecipientID != f.RecipientID {
		return false
	}
	if f.Unread && rec.Read {
		return false
	}
	if f.Unsent && rec.SentAt != nil {
		return false
	}
	if f.ScheduledBefore != nil && rec.ScheduledAt.After(*f.ScheduledBefore) {
		return false
	}
	return true
}

// Order is the sort order for Find.
type Order int

const (
	OrderCreatedAsc Order = iota
	OrderCreatedDesc
)

// FindOptions controls ordering and size of Find results.
type FindOptions struct {
	OrderBy Order
	Limit   int // 0 = no limit
}

// Changes lists the mutable fields of a record. Nil fields are left untouched.
type Changes struct {
	SentAt      *time.Time
	ClearSentAt bool
	Read        *bool
}

// Apply mutates rec in place.
func (c Changes) Apply(rec *Record) {
	if c.ClearSentAt {
		rec.SentAt = nil
	}
	if c.SentAt != nil {
		t := *c.SentAt
		rec.SentAt = &t
	}
	if c.Read != nil {
		rec.Read = *c.Read
	}
}

// PushSubscription is an opaque push endpoint registration.
type PushSubscription struct {
	Endpoint string            `json:"endpoint"`
	Keys     map[string]string `json:"keys,omitempty"`
}

// Contact holds the ways a recipient can be reached.
type Contact struct {
	Email            string
	Phone            string
	DisplayName      string
	PushSubscription *PushSubscription
}

// UserDirectory resolves recipients to contact details.
type UserDirectory interface {
	// FindUser returns (nil, nil) when the user does not exist.
	FindUser(ctx context.Context, id string) (*Contact, error)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

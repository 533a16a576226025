package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// Store keeps notification records and recipient contacts in MongoDB
// collections. It implements notifications.Storage and
// notifications.UserDirectory.
type Store struct {
	records  *mongo.Collection
	contacts *mongo.Collection
	now      func() time.Time
}

var (
	_ notifications.Storage       = (*Store)(nil)
	_ notifications.UserDirectory = (*Store)(nil)
)

// NewStore binds a store to the collections named in cfg.
func NewStore(db *mongo.Database, cfg Config) *Store {
	records := cfg.NotificationsCollection
	if records == "" {
		records = "notifications"
	}
	contacts := cfg.ContactsCollection
	if contacts == "" {
		contacts = "notification_contacts"
	}
	return &Store{
		records:  db.Collection(records),
		contacts: db.Collection(contacts),
		now:      time.Now,
	}
}

// EnsureIndexes creates the indexes used by inbox and digest queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.records.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "sent_at", Value: 1}, {Key: "scheduled_at", Value: 1}}},
	})
	if err != nil {
		return errors.Join(ErrQuery, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, rec notifications.Record) (notifications.Record, error) {
	if rec.RecipientID == "" {
		return notifications.Record{}, fmt.Errorf("%w: recipient id is required", notifications.ErrInvalidRecord)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.ScheduledAt.IsZero() {
		rec.ScheduledAt = rec.CreatedAt
	}

	if _, err := s.records.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return notifications.Record{}, fmt.Errorf("%w: duplicate id %q", notifications.ErrInvalidRecord, rec.ID)
		}
		return notifications.Record{}, errors.Join(ErrQuery, err)
	}
	return rec, nil
}

func (s *Store) Find(ctx context.Context, filter notifications.Filter, opts notifications.FindOptions) ([]notifications.Record, error) {
	findOpts := options.Find().SetSort(sortDoc(opts.OrderBy))
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cur, err := s.records.Find(ctx, filterDoc(filter), findOpts)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	var out []notifications.Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, filter notifications.Filter) (int, error) {
	n, err := s.records.CountDocuments(ctx, filterDoc(filter))
	if err != nil {
		return 0, errors.Join(ErrQuery, err)
	}
	return int(n), nil
}

func (s *Store) FindOne(ctx context.Context, filter notifications.Filter) (*notifications.Record, error) {
	var rec notifications.Record
	err := s.records.FindOne(ctx, filterDoc(filter),
		options.FindOne().SetSort(sortDoc(notifications.OrderCreatedAsc)),
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notifications.ErrNotificationNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return &rec, nil
}

// Update resolves the oldest match first, then updates it by id.
func (s *Store) Update(ctx context.Context, filter notifications.Filter, changes notifications.Changes) error {
	rec, err := s.FindOne(ctx, filter)
	if err != nil {
		return err
	}
	update := updateDoc(changes)
	if update == nil {
		return nil
	}

	res, err := s.records.UpdateOne(ctx, bson.D{{Key: "_id", Value: rec.ID}}, update)
	if err != nil {
		return errors.Join(ErrQuery, err)
	}
	if res.MatchedCount == 0 {
		return notifications.ErrNotificationNotFound
	}
	return nil
}

func (s *Store) UpdateMany(ctx context.Context, filter notifications.Filter, changes notifications.Changes) error {
	update := updateDoc(changes)
	if update == nil {
		return nil
	}
	if _, err := s.records.UpdateMany(ctx, filterDoc(filter), update); err != nil {
		return errors.Join(ErrQuery, err)
	}
	return nil
}

type contactDoc struct {
	UserID           string                          `bson:"_id"`
	Email            string                          `bson:"email"`
	Phone            string                          `bson:"phone"`
	DisplayName      string                          `bson:"display_name"`
	PushSubscription *notifications.PushSubscription `bson:"push_subscription,omitempty"`
	UpdatedAt        time.Time                       `bson:"updated_at"`
}

// FindUser returns (nil, nil) for unknown users.
func (s *Store) FindUser(ctx context.Context, id string) (*notifications.Contact, error) {
	var doc contactDoc
	err := s.contacts.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return &notifications.Contact{
		Email:            doc.Email,
		Phone:            doc.Phone,
		DisplayName:      doc.DisplayName,
		PushSubscription: doc.PushSubscription,
	}, nil
}

// PutContact inserts or replaces the contact details of a user.
func (s *Store) PutContact(ctx context.Context, id string, c notifications.Contact) error {
	doc := contactDoc{
		UserID:           id,
		Email:            c.Email,
		Phone:            c.Phone,
		DisplayName:      c.DisplayName,
		PushSubscription: c.PushSubscription,
		UpdatedAt:        s.now(),
	}
	_, err := s.contacts.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Join(ErrQuery, err)
	}
	return nil
}

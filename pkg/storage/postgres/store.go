package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/notifyplan/pkg/notifications"
)

// DB is the subset of pgxpool.Pool and pgx.Tx used by Store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists notification records and recipient contacts in PostgreSQL.
// It implements notifications.Storage and notifications.UserDirectory.
type Store struct {
	db  DB
	now func() time.Time
}

var (
	_ notifications.Storage       = (*Store)(nil)
	_ notifications.UserDirectory = (*Store)(nil)
)

// NewStore creates a store on top of a pool or transaction.
func NewStore(db DB) *Store {
	return &Store{db: db, now: time.Now}
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

	var data []byte
	if len(rec.Data) > 0 {
		var err error
		if data, err = json.Marshal(rec.Data); err != nil {
			return notifications.Record{}, fmt.Errorf("%w: %w", notifications.ErrInvalidRecord, err)
		}
	}

	_, err := s.db.Exec(ctx,
		"INSERT INTO notifications ("+recordColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)",
		rec.ID, rec.RecipientID, rec.OrganizationID, rec.ProjectID,
		string(rec.Type), rec.Title, rec.Message, string(rec.Priority),
		data, rec.Read, rec.ScheduledAt, rec.SentAt, rec.ExpiresAt, rec.CreatedAt,
	)
	if IsDuplicateKeyError(err) {
		return notifications.Record{}, fmt.Errorf("%w: duplicate id %q", notifications.ErrInvalidRecord, rec.ID)
	}
	if err != nil {
		return notifications.Record{}, errors.Join(ErrQuery, err)
	}
	return rec, nil
}

func (s *Store) Find(ctx context.Context, filter notifications.Filter, opts notifications.FindOptions) ([]notifications.Record, error) {
	sql, args := selectRecords(filter, opts)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	defer rows.Close()

	var out []notifications.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Join(ErrQuery, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, filter notifications.Filter) (int, error) {
	sql, args := countRecords(filter)
	var n int64
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, errors.Join(ErrQuery, err)
	}
	return int(n), nil
}

func (s *Store) FindOne(ctx context.Context, filter notifications.Filter) (*notifications.Record, error) {
	sql, args := selectRecords(filter, notifications.FindOptions{Limit: 1})
	rec, err := scanRecord(s.db.QueryRow(ctx, sql, args...))
	if IsNotFoundError(err) {
		return nil, notifications.ErrNotificationNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return &rec, nil
}

func (s *Store) Update(ctx context.Context, filter notifications.Filter, changes notifications.Changes) error {
	sql, args := updateFirst(filter, changes)
	if sql == "" {
		_, err := s.FindOne(ctx, filter)
		return err
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return errors.Join(ErrQuery, err)
	}
	if tag.RowsAffected() == 0 {
		return notifications.ErrNotificationNotFound
	}
	return nil
}

func (s *Store) UpdateMany(ctx context.Context, filter notifications.Filter, changes notifications.Changes) error {
	sql, args := updateAll(filter, changes)
	if sql == "" {
		return nil
	}
	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return errors.Join(ErrQuery, err)
	}
	return nil
}

// FindUser returns (nil, nil) for unknown users.
func (s *Store) FindUser(ctx context.Context, id string) (*notifications.Contact, error) {
	var (
		c    notifications.Contact
		push []byte
	)
	err := s.db.QueryRow(ctx,
		"SELECT email, phone, display_name, push_subscription FROM notification_contacts WHERE user_id = $1", id,
	).Scan(&c.Email, &c.Phone, &c.DisplayName, &push)
	if IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	if len(push) > 0 {
		c.PushSubscription = &notifications.PushSubscription{}
		if err := json.Unmarshal(push, c.PushSubscription); err != nil {
			return nil, errors.Join(ErrQuery, err)
		}
	}
	return &c, nil
}

// PutContact inserts or replaces the contact details of a user.
func (s *Store) PutContact(ctx context.Context, id string, c notifications.Contact) error {
	var push []byte
	if c.PushSubscription != nil {
		var err error
		if push, err = json.Marshal(c.PushSubscription); err != nil {
			return errors.Join(ErrQuery, err)
		}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO notification_contacts (user_id, email, phone, display_name, push_subscription, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			display_name = EXCLUDED.display_name,
			push_subscription = EXCLUDED.push_subscription,
			updated_at = EXCLUDED.updated_at`,
		id, c.Email, c.Phone, c.DisplayName, push, s.now(),
	)
	if err != nil {
		return errors.Join(ErrQuery, err)
	}
	return nil
}

func scanRecord(row pgx.Row) (notifications.Record, error) {
	var (
		rec           notifications.Record
		typ, priority string
		data          []byte
	)
	err := row.Scan(
		&rec.ID, &rec.RecipientID, &rec.OrganizationID, &rec.ProjectID,
		&typ, &rec.Title, &rec.Message, &priority,
		&data, &rec.Read, &rec.ScheduledAt, &rec.SentAt, &rec.ExpiresAt, &rec.CreatedAt,
	)
	if err != nil {
		return notifications.Record{}, err
	}
	rec.Type = notifications.Type(typ)
	rec.Priority = notifications.Priority(priority)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Data); err != nil {
			return notifications.Record{}, err
		}
	}
	return rec, nil
}

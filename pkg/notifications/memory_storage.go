package notifications

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	records map[string]Record
	order   []string // insertion order, used to break CreatedAt ties
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string]Record)}
}

func (s *MemoryStorage) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.RecipientID == "" {
		return Record{}, fmt.Errorf("%w: recipient id is required", ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, exists := s.records[rec.ID]; exists {
		return Record{}, fmt.Errorf("%w: duplicate id %q", ErrInvalidRecord, rec.ID)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if rec.ScheduledAt.IsZero() {
		rec.ScheduledAt = rec.CreatedAt
	}
	rec.Data = maps.Clone(rec.Data)

	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return clone(rec), nil
}

func (s *MemoryStorage) Find(ctx context.Context, filter Filter, opts FindOptions) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.match(filter)
	pos := make(map[string]int, len(s.order))
	for i, id := range s.order {
		pos[id] = i
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(pos[a.ID], pos[b.ID])
		}
		if opts.OrderBy == OrderCreatedDesc {
			return -c
		}
		return c
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *MemoryStorage) Count(ctx context.Context, filter Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, rec := range s.records {
		if filter.Match(rec) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStorage) FindOne(ctx context.Context, filter Filter) (*Record, error) {
	recs, err := s.Find(ctx, filter, FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotificationNotFound
	}
	return &recs[0], nil
}

func (s *MemoryStorage) Update(ctx context.Context, filter Filter, changes Changes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		rec := s.records[id]
		if filter.Match(rec) {
			changes.Apply(&rec)
			s.records[id] = rec
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (s *MemoryStorage) UpdateMany(ctx context.Context, filter Filter, changes Changes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		rec := s.records[id]
		if filter.Match(rec) {
			changes.Apply(&rec)
			s.records[id] = rec
		}
	}
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// match must be called with the lock held.
func (s *MemoryStorage) match(filter Filter) []Record {
	var out []Record
	for _, id := range s.order {
		if rec := s.records[id]; filter.Match(rec) {
			out = append(out, clone(rec))
		}
	}
	return out
}

// clone returns rec with its own copies of the mutable fields.
func clone(rec Record) Record {
	rec.Data = maps.Clone(rec.Data)
	if rec.SentAt != nil {
		t := *rec.SentAt
		rec.SentAt = &t
	}
	if rec.ExpiresAt != nil {
		t := *rec.ExpiresAt
		rec.ExpiresAt = &t
	}
	return rec
}

// MemoryDirectory is a UserDirectory backed by a map.
type MemoryDirectory struct {
	contacts map[string]Contact
	mu       sync.RWMutex
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{contacts: make(map[string]Contact)}
}

// Put adds or replaces the contact for id.
func (d *MemoryDirectory) Put(id string, c Contact) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contacts[id] = c
}

func (d *MemoryDirectory) FindUser(ctx context.Context, id string) (*Contact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.contacts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

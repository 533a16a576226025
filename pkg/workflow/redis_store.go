package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	rds "github.com/dmitrymomot/notifyplan/pkg/redis"
)

// RedisStore keeps instances as JSON strings and tracks their ids in a set,
// so several processes can share workflow state.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix sets the key namespace. Default "notifyplan:".
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithRedisTTL makes Redis expire instance keys after ttl as a backstop to
// the sweep. Zero disables expiry.
func WithRedisTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// NewRedisStore creates a store on client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "notifyplan:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id string) string { return rds.Key(s.prefix, "workflow", id) }
func (s *RedisStore) index() string       { return rds.Key(s.prefix, "workflows") }

func (s *RedisStore) Get(ctx context.Context, id string) (*Context, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrWorkflowNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	return decodeContext(raw)
}

func (s *RedisStore) Save(ctx context.Context, wc *Context) error {
	raw, err := json.Marshal(wc)
	if err != nil {
		return errors.Join(ErrStore, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(wc.WorkflowID), raw, s.ttl)
		pipe.SAdd(ctx, s.index(), wc.WorkflowID)
		return nil
	})
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

// Update uses SET XX, so a key removed by Delete or expiry stays removed.
func (s *RedisStore) Update(ctx context.Context, wc *Context) error {
	raw, err := json.Marshal(wc)
	if err != nil {
		return errors.Join(ErrStore, err)
	}

	err = s.client.SetArgs(ctx, s.key(wc.WorkflowID), raw, redis.SetArgs{Mode: "XX", TTL: s.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrWorkflowNotFound
	}
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.index(), id)
		return nil
	})
	if err != nil {
		return false, errors.Join(ErrStore, err)
	}
	return del.Val() > 0, nil
}

// List also prunes ids whose keys have expired.
func (s *RedisStore) List(ctx context.Context) ([]*Context, error) {
	ids, err := s.client.SMembers(ctx, s.index()).Result()
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}

	out := make([]*Context, 0, len(values))
	var stale []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		wc, err := decodeContext([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, wc)
	}

	if len(stale) > 0 {
		if err := s.client.SRem(ctx, s.index(), stale...).Err(); err != nil {
			return out, errors.Join(ErrStore, err)
		}
	}
	return out, nil
}

func decodeContext(raw []byte) (*Context, error) {
	var wc Context
	if err := json.Unmarshal(raw, &wc); err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	if wc.Data == nil {
		wc.Data = map[string]any{}
	}
	return &wc, nil
}

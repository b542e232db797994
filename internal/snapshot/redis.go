package snapshot

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/argyll/wizard/pkg/store"
)

// RedisStore implements Store with one Redis string per snapshot
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a store keeping snapshots under keys starting with
// prefix. The store does not own client
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Load(
	ctx context.Context, id string,
) ([]store.Entry, error) {
	data, err := s.client.Get(ctx, s.keyFor(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (s *RedisStore) Save(
	ctx context.Context, id string, entries []store.Entry,
) error {
	data, err := encode(entries)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keyFor(id), data, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.keyFor(id)).Err()
}

func (s *RedisStore) Close() error {
	return nil
}

func (s *RedisStore) keyFor(id string) string {
	return s.prefix + "snapshot:" + id
}

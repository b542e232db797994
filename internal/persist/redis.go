package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/codec"
	"github.com/kode4food/argyll/wizard/pkg/log"
	"github.com/kode4food/argyll/wizard/pkg/util"
)

type (
	// Redis is an api.Persister storing each flow instance's persisted
	// properties in one Redis hash, keyed by flow type and lookup key
	Redis struct {
		client *redis.Client
		prefix string
		codec  api.Codec
		names  util.Set[api.Name]
	}

	// Option configures a Redis persister
	Option func(*Redis)
)

var ErrClientRequired = errors.New("redis client is required")

var _ api.Persister = (*Redis)(nil)

// NewRedis returns a persister writing through client under keys starting
// with prefix
func NewRedis(
	client *redis.Client, prefix string, opts ...Option,
) (*Redis, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	r := &Redis{
		client: client,
		prefix: prefix,
		codec:  codec.JSON{},
		names:  util.Set[api.Name]{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// WithCodec sets the codec used to serialize persisted values
func WithCodec(c api.Codec) Option {
	return func(r *Redis) {
		r.codec = c
	}
}

// Handling makes the persister serve the named properties when it is
// attached as a handler
func Handling(names ...api.Name) Option {
	return func(r *Redis) {
		for _, n := range names {
			r.names.Add(n)
		}
	}
}

// IsPersisting implements api.Persister
func (r *Redis) IsPersisting(d *api.Descriptor) bool {
	for _, n := range d.Names() {
		if r.names.Contains(n) {
			return true
		}
	}
	return false
}

// SaveChanges implements api.Persister. A property without a value is
// removed from the hash. The stored value is left as it was
func (r *Redis) SaveChanges(
	ctx context.Context, ac api.ActivityContext, d *api.Descriptor,
) (any, error) {
	key := r.Key(ac.FlowType(), ac.LookupKey())
	v, ok, err := ac.Property(d.Name)
	if err != nil {
		return nil, err
	}
	if !ok || v == nil {
		return nil, r.client.HDel(ctx, key, string(d.Name)).Err()
	}
	raw, err := r.codec.Serialize(d, v)
	if err != nil {
		return nil, err
	}
	if err := r.client.HSet(ctx, key, string(d.Name), raw).Err(); err != nil {
		slog.Error("Failed to persist property",
			log.FlowKey(ac.LookupKey()),
			log.Property(d.Name),
			log.Error(err))
		return nil, err
	}
	slog.Debug("Property persisted",
		log.FlowKey(ac.LookupKey()),
		log.Property(d.Name))
	return nil, nil
}

// Load returns the raw persisted values of one flow instance
func (r *Redis) Load(
	ctx context.Context, flowType, lookupKey string,
) (map[api.Name]string, error) {
	vals, err := r.client.HGetAll(ctx, r.Key(flowType, lookupKey)).Result()
	if err != nil {
		return nil, err
	}
	res := make(map[api.Name]string, len(vals))
	for k, v := range vals {
		res[api.Name(k)] = v
	}
	return res, nil
}

// Delete removes every persisted value of one flow instance
func (r *Redis) Delete(ctx context.Context, flowType, lookupKey string) error {
	return r.client.Del(ctx, r.Key(flowType, lookupKey)).Err()
}

// Key returns the hash key of one flow instance
func (r *Redis) Key(flowType, lookupKey string) string {
	return fmt.Sprintf("%sflow:%s:%s", r.prefix, flowType, lookupKey)
}

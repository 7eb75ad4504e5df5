package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/pkg/rag"
)

// Redis is a result cache on a redis server. Entries are stored as JSON
// under prefix-scoped keys so several pipelines can share one server.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *logrus.Logger
}

// NewRedis returns a cache over the client. A zero TTL disables expiry; a
// nil logger falls back to a fresh one.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration, log *logrus.Logger) *Redis {
	if prefix == "" {
		prefix = "ragline"
	}
	if log == nil {
		log = logrus.New()
	}

	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		log:    log,
	}
}

func (c *Redis) Get(ctx context.Context, key string) ([]rag.Document, bool, error) {
	raw, err := c.client.Get(ctx, c.fullKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "unable to get cache entry")
	}

	var docs []rag.Document
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, false, errors.Wrap(err, "unable to unmarshal cache entry")
	}

	return docs, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, docs []rag.Document) error {
	raw, err := json.Marshal(docs)
	if err != nil {
		return errors.Wrap(err, "unable to marshal cache entry")
	}

	if err := c.client.Set(ctx, c.fullKey(key), raw, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "unable to set cache entry")
	}

	return nil
}

// Invalidate deletes every key under the cache prefix.
func (c *Redis) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+":*", 100).Result()
		if err != nil {
			return errors.Wrap(err, "unable to scan cache keys")
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return errors.Wrap(err, "unable to delete cache keys")
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.log.WithField("prefix", c.prefix).Debug("cache invalidated")

	return nil
}

// Ping verifies the redis server is reachable.
func (c *Redis) Ping(ctx context.Context) error {
	return errors.Wrap(c.client.Ping(ctx).Err(), "redis unreachable")
}

func (c *Redis) fullKey(key string) string {
	return c.prefix + ":" + key
}

var _ rag.ResultCache = (*Redis)(nil)

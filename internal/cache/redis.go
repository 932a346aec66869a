// Package cache provides Redis caching utilities for the remote store adapters.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"linesen/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// errorHook counts failed commands; redis.Nil is a miss, not an error.
type errorHook struct{}

func (errorHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		return countError(cmd.Name(), next(ctx, cmd))
	}
}

func (errorHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		return countError("pipeline", next(ctx, cmds))
	}
}

func countError(command string, err error) error {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrors.WithLabelValues(command).Inc()
	}
	return err
}

// Options parses a REDIS_URL (redis://...) or a bare host:port.
func Options(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// InitRedis connects to addr and installs the client. An invalid address or
// an unreachable server leaves caching disabled; callers keep working
// against the database alone.
func InitRedis(addr string) {
	opts, err := Options(addr)
	if err != nil {
		observability.Logger.Warn("invalid REDIS_URL, continuing without cache", "error", err)
		SetClient(nil)
		return
	}

	c := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		observability.Logger.Warn("redis unreachable, continuing without cache", "addr", opts.Addr, "error", err)
		_ = c.Close()
		SetClient(nil)
		return
	}

	SetClient(c)
	observability.Logger.Info("redis connected", "addr", opts.Addr)
}

// SetClient installs c as the cache client; nil disables caching.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorHook{})
	}
	client = c
}

// GetClient returns the current Redis client instance.
func GetClient() *redis.Client {
	return client
}

// Close releases the client.
func Close() {
	if client != nil {
		_ = client.Close()
		client = nil
	}
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// then stores dest with ttl. Cache failures fall through to fetch. The fill
// is skipped when key was invalidated while fetch ran, so a slow reader
// never caches rows older than a concurrent write.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}

	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			observability.CacheLookups.WithLabelValues("hit").Inc()
			return nil
		}
		observability.CacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		observability.CacheLookups.WithLabelValues("miss").Inc()
	default:
		observability.CacheLookups.WithLabelValues("error").Inc()
	}

	seen, genErr := generation(ctx, client, key)

	if err := fetch(); err != nil {
		return err
	}
	if genErr != nil {
		return nil
	}

	b, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := fill(ctx, key, b, ttl, seen); errors.Is(err, errStaleFill) || errors.Is(err, redis.TxFailedErr) {
		observability.CacheLookups.WithLabelValues("stale_fill").Inc()
	}
	return nil
}

var errStaleFill = errors.New("cache: key invalidated during fetch")

func generationKey(key string) string {
	return key + ":gen"
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, g getter, key string) (int64, error) {
	n, err := g.Get(ctx, generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// fill writes value under key only while the key's generation still equals
// seen.
func fill(ctx context.Context, key string, value []byte, ttl time.Duration, seen int64) error {
	return client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generation(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != seen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, ttl)
			return nil
		})
		return err
	}, generationKey(key))
}

package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultScrollTTL bounds how long a saved catalog offset is kept.
const DefaultScrollTTL = 30 * time.Minute

// ScrollStore keeps the catalog scroll offset across a reader session.
// Restore consumes the saved value: a second Restore reports nothing.
type ScrollStore interface {
	Save(ctx context.Context, key string, offset float64) error
	Restore(ctx context.Context, key string) (float64, bool, error)
}

type scrollEntry struct {
	offset  float64
	expires time.Time
}

// MemoryScrollStore is an in-process ScrollStore with per-entry expiry.
type MemoryScrollStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]scrollEntry
	now     func() time.Time
}

// NewMemoryScrollStore returns a store whose entries expire after ttl.
// A non-positive ttl selects DefaultScrollTTL.
func NewMemoryScrollStore(ttl time.Duration) *MemoryScrollStore {
	if ttl <= 0 {
		ttl = DefaultScrollTTL
	}
	return &MemoryScrollStore{
		ttl:     ttl,
		entries: make(map[string]scrollEntry),
		now:     time.Now,
	}
}

func (m *MemoryScrollStore) Save(_ context.Context, key string, offset float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	m.entries[key] = scrollEntry{offset: offset, expires: now.Add(m.ttl)}
	return nil
}

func (m *MemoryScrollStore) Restore(_ context.Context, key string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return 0, false, nil
	}
	delete(m.entries, key)
	if !m.now().Before(e.expires) {
		return 0, false, nil
	}
	return e.offset, true, nil
}

// RedisScrollStore keeps offsets in Redis under maktaba:scroll:<key>.
type RedisScrollStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisScrollStore wraps client. A non-positive ttl selects DefaultScrollTTL.
func NewRedisScrollStore(client *redis.Client, ttl time.Duration) *RedisScrollStore {
	if ttl <= 0 {
		ttl = DefaultScrollTTL
	}
	return &RedisScrollStore{client: client, ttl: ttl}
}

func scrollKey(key string) string {
	return "maktaba:scroll:" + key
}

func (r *RedisScrollStore) Save(ctx context.Context, key string, offset float64) error {
	v := strconv.FormatFloat(offset, 'f', -1, 64)
	if err := r.client.Set(ctx, scrollKey(key), v, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save scroll offset: %w", err)
	}
	return nil
}

func (r *RedisScrollStore) Restore(ctx context.Context, key string) (float64, bool, error) {
	v, err := r.client.GetDel(ctx, scrollKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to restore scroll offset: %w", err)
	}
	offset, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid scroll offset %q: %w", v, err)
	}
	return offset, true, nil
}

const (
	redisDialTimeout = 3 * time.Second
	redisIOTimeout   = 2 * time.Second
	redisPingTimeout = 2 * time.Second
)

// DialRedis parses a redis:// URL and pings the server before returning the
// client.
func DialRedis(ctx context.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	opts.DialTimeout = redisDialTimeout
	opts.ReadTimeout = redisIOTimeout
	opts.WriteTimeout = redisIOTimeout

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	if logger != nil {
		logger.Info("redis client connected", slog.String("addr", opts.Addr))
	}
	return client, nil
}

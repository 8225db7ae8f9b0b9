package redisx

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// search:listings:{hash of query} -> JSON page
	KeySearchListings = "search:listings:%s"
	// lock:invoice:{booking_id} -> owner token
	KeyInvoiceLock = "lock:invoice:%d"
	// counter folded into search keys; INCR orphans every cached page
	KeySearchVersion = "search:listings:version"
	// ratelimit:{scope}:{ip|user}:{id} -> requests in the current window
	KeyRateLimit = "ratelimit:%s"
)

var (
	TTLSearch      = 2 * time.Minute
	TTLInvoiceLock = 30 * time.Second
)

var ErrLockHeld = errors.New("lock held by another worker")

func New(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Lock acquires key for ttl and returns a release func. ErrLockHeld when taken.
func Lock(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func() {
		_ = releaseScript.Run(context.Background(), rdb, []string{key}, token).Err()
	}, nil
}

// Locker binds Lock to a client.
type Locker struct {
	RDB *redis.Client
}

func (l Locker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	return Lock(ctx, l.RDB, key, ttl)
}

// SearchCache stores JSON search pages keyed by the normalized query string.
type SearchCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSearchCache(rdb *redis.Client, ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = TTLSearch
	}
	return &SearchCache{rdb: rdb, ttl: ttl}
}

func (c *SearchCache) key(ctx context.Context, query string) (string, error) {
	version, err := c.rdb.Get(ctx, KeySearchVersion).Result()
	if errors.Is(err, redis.Nil) {
		version = "0"
	} else if err != nil {
		return "", err
	}
	sum := sha1.Sum([]byte(version + "|" + query))
	return fmt.Sprintf(KeySearchListings, hex.EncodeToString(sum[:])), nil
}

// Get decodes a cached page into dst. The bool reports a hit.
func (c *SearchCache) Get(ctx context.Context, query string, dst interface{}) (bool, error) {
	key, err := c.key(ctx, query)
	if err != nil {
		return false, err
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *SearchCache) Set(ctx context.Context, query string, v interface{}) error {
	key, err := c.key(ctx, query)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Invalidate bumps the version so every cached page misses.
func (c *SearchCache) Invalidate(ctx context.Context) {
	_ = c.rdb.Incr(ctx, KeySearchVersion).Err()
}

// windowScript counts one request and starts the window on the first hit.
// Returns {count, pttl}.
var windowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}`)

// RateLimiter is a fixed-window limiter shared by every API instance.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := windowScript.Run(ctx, l.rdb, []string{fmt.Sprintf(KeyRateLimit, key)}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit script returned %d values", len(res))
	}
	if res[0] <= int64(l.limit) {
		return true, 0, nil
	}
	retry := time.Duration(res[1]) * time.Millisecond
	if retry <= 0 {
		retry = l.window
	}
	return false, retry, nil
}

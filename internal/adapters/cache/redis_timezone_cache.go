package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"timezone-lookup-service/internal/domain"
	"timezone-lookup-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tz:"

type redisEntry struct {
	ZoneName     string `json:"zone_name"`
	Abbreviation string `json:"abbreviation"`
	CountryCode  string `json:"country_code"`
	CountryName  string `json:"country_name"`
	GMTOffset    int    `json:"gmt_offset"`
	DST          bool   `json:"dst"`
	ZoneStart    int64  `json:"zone_start"`
	ZoneEnd      int64  `json:"zone_end"`
}

// RedisTimezoneCache stores zones as JSON values; expiry is delegated to
// redis key TTLs.
type RedisTimezoneCache struct {
	Client *redis.Client
	Now    func() time.Time
}

func NewRedisTimezoneCache(client *redis.Client) *RedisTimezoneCache {
	return &RedisTimezoneCache{Client: client, Now: time.Now}
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis client: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis client: ping: %w", err)
	}
	return client, nil
}

func (r *RedisTimezoneCache) Get(ctx context.Context, key string) (_ domain.TimezoneResult, _ bool, err error) {
	defer obs.Time(ctx, "timezone.redis.Get")(&err)

	if r.Client == nil {
		return domain.TimezoneResult{}, false, errors.New("redis timezone cache: client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return domain.TimezoneResult{}, false, errors.New("get redis timezone cache: key must not be empty")
	}

	b, err := r.Client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.TimezoneResult{}, false, nil
	}
	if err != nil {
		return domain.TimezoneResult{}, false, fmt.Errorf("get redis timezone cache key=%q: %w", key, err)
	}

	var e redisEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return domain.TimezoneResult{}, false, fmt.Errorf("get redis timezone cache key=%q: decode: %w", key, err)
	}

	return domain.TimezoneResult{
		ZoneName:         e.ZoneName,
		Abbreviation:     e.Abbreviation,
		CountryCode:      e.CountryCode,
		CountryName:      e.CountryName,
		GMTOffsetSeconds: e.GMTOffset,
		DST:              e.DST,
		ZoneStart:        e.ZoneStart,
		ZoneEnd:          e.ZoneEnd,
	}, true, nil
}

// Put stores res with a TTL of expiresAt - now. Entries that are already
// expired are skipped.
func (r *RedisTimezoneCache) Put(
	ctx context.Context,
	key string,
	res domain.TimezoneResult,
	expiresAt time.Time,
) (err error) {
	defer obs.Time(ctx, "timezone.redis.Put")(&err)

	if r.Client == nil {
		return errors.New("redis timezone cache: client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("insert redis timezone cache: empty key")
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	ttl := expiresAt.Sub(now())
	if ttl <= 0 {
		return nil
	}

	b, err := json.Marshal(redisEntry{
		ZoneName:     res.ZoneName,
		Abbreviation: res.Abbreviation,
		CountryCode:  res.CountryCode,
		CountryName:  res.CountryName,
		GMTOffset:    res.GMTOffsetSeconds,
		DST:          res.DST,
		ZoneStart:    res.ZoneStart,
		ZoneEnd:      res.ZoneEnd,
	})
	if err != nil {
		return fmt.Errorf("insert redis timezone cache key=%q: encode: %w", key, err)
	}

	if err := r.Client.Set(ctx, redisKeyPrefix+key, b, ttl).Err(); err != nil {
		return fmt.Errorf("insert redis timezone cache key=%q: %w", key, err)
	}
	return nil
}

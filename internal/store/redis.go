package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps a redis client used as a read-through cache for QR token
// lookups.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

const tokenKeyPrefix = "classtrack:qrtoken:"

// GetSessionID returns the cached session id for a QR token, or "" on miss.
// Cache errors are treated as misses; the store remains the source of truth.
func (r *Redis) GetSessionID(ctx context.Context, token string) string {
	if r == nil || r.Client == nil {
		return ""
	}
	id, err := r.Client.Get(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		return ""
	}
	return id
}

// SetSessionID caches a token→session mapping until the session expires.
// Already-expired sessions are not cached.
func (r *Redis) SetSessionID(ctx context.Context, token, sessionID string, expiresAt time.Time) {
	if r == nil || r.Client == nil {
		return
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	_ = r.Client.Set(ctx, tokenKeyPrefix+token, sessionID, ttl).Err()
}

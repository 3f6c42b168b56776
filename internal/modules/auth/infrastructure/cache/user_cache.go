package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"filevault/internal/modules/auth/domain"
)

const (
	keyPrefixID    = "user:id:"
	keyPrefixEmail = "user:email:"
)

// RedisUserCache caches user rows under both their id and email keys.
// Cache errors are logged and treated as misses; the store stays
// authoritative.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisUserCache creates a user cache with the given TTL.
func NewRedisUserCache(client *redis.Client, ttl time.Duration) *RedisUserCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisUserCache{client: client, ttl: ttl}
}

// Get implements domain.UserCache. Key is either a user id or an email,
// prefixed by KeyByID/KeyByEmail.
func (c *RedisUserCache) Get(ctx context.Context, key string) (*domain.User, bool) {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("user cache read failed: %v", err)
		}
		return nil, false
	}

	user := &domain.User{}
	if err := json.Unmarshal([]byte(data), user); err != nil {
		log.Printf("user cache entry corrupt, dropping: %v", err)
		c.client.Del(ctx, key)
		return nil, false
	}
	return user, true
}

// Set caches the user under both id and email keys.
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User) {
	data, err := json.Marshal(user)
	if err != nil {
		log.Printf("user cache marshal failed: %v", err)
		return
	}
	if err := c.client.Set(ctx, KeyByID(user.ID.String()), data, c.ttl).Err(); err != nil {
		log.Printf("user cache write failed: %v", err)
	}
	if err := c.client.Set(ctx, KeyByEmail(user.Email), data, c.ttl).Err(); err != nil {
		log.Printf("user cache write failed: %v", err)
	}
}

// Invalidate drops both keys for the user. Callers must invalidate before
// issuing the underlying write.
func (c *RedisUserCache) Invalidate(ctx context.Context, user *domain.User) {
	if err := c.client.Del(ctx, KeyByID(user.ID.String()), KeyByEmail(user.Email)).Err(); err != nil {
		log.Printf("user cache invalidation failed: %v", err)
	}
}

// KeyByID returns the cache key for a user id.
func KeyByID(id string) string { return keyPrefixID + id }

// KeyByEmail returns the cache key for an email.
func KeyByEmail(email string) string { return keyPrefixEmail + email }

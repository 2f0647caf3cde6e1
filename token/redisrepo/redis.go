// Package redisrepo stores issued tokens in Redis with a TTL equal to the
// token's remaining lifetime.
package redisrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jrsteele09/go-oauth-facade/internal/errors"
	"github.com/jrsteele09/go-oauth-facade/token"
	"github.com/redis/go-redis/v9"
)

const tokenPrefix = "oauth:token:"

var _ token.Repo = (*RedisRepo)(nil)

type RedisRepo struct {
	client  redis.UniversalClient
	nowFunc func() time.Time
}

func New(client redis.UniversalClient) *RedisRepo {
	return &RedisRepo{client: client, nowFunc: time.Now}
}

// NewFromURL parses a redis:// URL and connects lazily.
func NewFromURL(rawURL string) (*RedisRepo, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return New(redis.NewClient(opts)), nil
}

// CheckHealth verifies Redis connectivity
func (r *RedisRepo) CheckHealth(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (r *RedisRepo) Close() error {
	return r.client.Close()
}

// Save stores t until it expires. Tokens already expired are not stored.
func (r *RedisRepo) Save(ctx context.Context, t *token.StoredToken) error {
	ttl := t.ExpiresAt.Sub(r.nowFunc())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling token: %w", err)
	}
	if err := r.client.Set(ctx, tokenPrefix+t.Value, data, ttl).Err(); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, value string) (*token.StoredToken, error) {
	data, err := r.client.Get(ctx, tokenPrefix+value).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("getting token: %w", err)
	}

	var t token.StoredToken
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshaling token: %w", err)
	}
	return &t, nil
}

// Delete removes value. DEL is atomic, so of two concurrent deletes only
// one succeeds.
func (r *RedisRepo) Delete(ctx context.Context, value string) error {
	n, err := r.client.Del(ctx, tokenPrefix+value).Result()
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	if n == 0 {
		return errors.ErrNotFound
	}
	return nil
}

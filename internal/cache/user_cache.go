package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"identity-service/internal/model"
)

// UserCache keeps public projections keyed by id. Salt and digest never
// reach Redis.
type UserCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewUserCache(client *redisv9.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &UserCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *UserCache) GetUser(ctx context.Context, id uint64) (model.PublicUser, bool, error) {
	raw, err := c.client.Get(ctx, userKey(id)).Result()
	if err == redisv9.Nil {
		return model.PublicUser{}, false, nil
	}
	if err != nil {
		return model.PublicUser{}, false, fmt.Errorf("redis get user failed: %w", err)
	}

	var user model.PublicUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return model.PublicUser{}, false, fmt.Errorf("unmarshal cached user failed: %w", err)
	}
	return user, true, nil
}

func (c *UserCache) SetUser(ctx context.Context, user model.PublicUser) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user cache failed: %w", err)
	}
	if err := c.client.Set(ctx, userKey(user.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set user failed: %w", err)
	}
	return nil
}

func (c *UserCache) DeleteUser(ctx context.Context, id uint64) error {
	if err := c.client.Del(ctx, userKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete user failed: %w", err)
	}
	return nil
}

func userKey(id uint64) string {
	return fmt.Sprintf("identity:user:%d", id)
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"eventhub/internal/model"
)

// PrincipalCache keeps the role and active flag of recently authenticated
// users so the auth middleware does not hit the database on every request.
type PrincipalCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewPrincipalCache(client *redisv9.Client, ttl time.Duration) *PrincipalCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &PrincipalCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *PrincipalCache) Get(ctx context.Context, userID uint) (model.Principal, bool, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redisv9.Nil {
		return model.Principal{}, false, nil
	}
	if err != nil {
		return model.Principal{}, false, fmt.Errorf("redis get principal failed: %w", err)
	}

	var principal model.Principal
	if err := json.Unmarshal([]byte(raw), &principal); err != nil {
		return model.Principal{}, false, fmt.Errorf("unmarshal cached principal failed: %w", err)
	}
	return principal, true, nil
}

func (c *PrincipalCache) Set(ctx context.Context, principal model.Principal) error {
	payload, err := json.Marshal(principal)
	if err != nil {
		return fmt.Errorf("marshal principal failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(principal.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set principal failed: %w", err)
	}
	return nil
}

func (c *PrincipalCache) Delete(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete principal failed: %w", err)
	}
	return nil
}

func (c *PrincipalCache) key(userID uint) string {
	return fmt.Sprintf("auth:principal:%d", userID)
}

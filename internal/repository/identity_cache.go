package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"funnel-engine/internal/funnel"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdentityCache keeps a session's resolved identity so later steps of the
// same visit skip polling.
type IdentityCache interface {
	Get(ctx context.Context, sessionID string) (*funnel.Identity, error)
	Put(ctx context.Context, sessionID string, identity *funnel.Identity) error
}

type redisIdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdentityCache(client *redis.Client, ttl time.Duration) IdentityCache {
	return &redisIdentityCache{
		client: client,
		ttl:    ttl,
	}
}

func identityKey(sessionID string) string {
	return "funnel:identity:" + sessionID
}

func (c *redisIdentityCache) Get(ctx context.Context, sessionID string) (*funnel.Identity, error) {
	raw, err := c.client.Get(ctx, identityKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get identity: %w", err)
	}

	var identity funnel.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, fmt.Errorf("decode cached identity: %w", err)
	}
	return &identity, nil
}

func (c *redisIdentityCache) Put(ctx context.Context, sessionID string, identity *funnel.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	return c.client.Set(ctx, identityKey(sessionID), raw, c.ttl).Err()
}

type memoryIdentityCache struct {
	mu    sync.Mutex
	items map[string]funnel.Identity
}

func NewMemoryIdentityCache() IdentityCache {
	return &memoryIdentityCache{
		items: make(map[string]funnel.Identity),
	}
}

func (c *memoryIdentityCache) Get(_ context.Context, sessionID string) (*funnel.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	identity, ok := c.items[sessionID]
	if !ok {
		return nil, nil
	}
	return &identity, nil
}

func (c *memoryIdentityCache) Put(_ context.Context, sessionID string, identity *funnel.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[sessionID] = *identity
	return nil
}

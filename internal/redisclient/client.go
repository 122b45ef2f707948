package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/decrement_stock.lua
var decrementStockScript string

type Client struct {
	rdb             *redis.Client
	decrementScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:             rdb,
		decrementScript: redis.NewScript(decrementStockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// InitStock seeds the cached stock count for a product
func (c *Client) InitStock(ctx context.Context, productID string, qty int) error {
	return c.rdb.Set(ctx, stockKey(productID), qty, 0).Err()
}

// DecrementStock atomically decrements the cached stock count, floored at
// zero. Returns the remaining count.
func (c *Client) DecrementStock(ctx context.Context, productID string, qty int) (int, error) {
	result, err := c.decrementScript.Run(ctx, c.rdb, []string{stockKey(productID)}, qty).Result()
	if err != nil {
		return 0, fmt.Errorf("decrement stock script failed: %w", err)
	}

	remaining, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type")
	}

	return int(remaining), nil
}

// GetStock retrieves the cached stock count. Returns ErrNil-backed error
// when the product is not cached.
func (c *Client) GetStock(ctx context.Context, productID string) (int, error) {
	val, err := c.rdb.Get(ctx, stockKey(productID)).Result()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(val)
}

// SetResetToken stores a password-reset token with a TTL
func (c *Client) SetResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, resetKey(token), userID, ttl).Err()
}

// ConsumeResetToken looks up and deletes a password-reset token, returning
// the user it belongs to. A token can be consumed at most once.
func (c *Client) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	pipe := c.rdb.TxPipeline()
	get := pipe.Get(ctx, resetKey(token))
	pipe.Del(ctx, resetKey(token))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return get.Val(), nil
}

// MarkEventSeen records a webhook event id with a TTL. Returns true the
// first time the id is seen. Best-effort replay guard; the conditional
// order update remains the authoritative idempotency check.
func (c *Client) MarkEventSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("webhook:event:%s", eventID), "1", ttl).Result()
}

func stockKey(productID string) string {
	return fmt.Sprintf("stock:%s", productID)
}

func resetKey(token string) string {
	return fmt.Sprintf("reset:%s", token)
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

const cartTTL = 30 * 24 * time.Hour

type Client struct {
	rdb *redis.Client
}

func NewClient(ctx context.Context, addr string) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing go-redis client.
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// IsRateLimited counts a hit for key in a fixed window that starts with the
// first hit, and reports whether the count exceeded max. Errors are returned
// so callers can fall back.
func (c *Client) IsRateLimited(ctx context.Context, key string, max int, window time.Duration) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	pipe := c.rdb.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	// A negative TTL means the window was just opened or lost its expiry.
	if incr.Val() == 1 || ttl.Val() < 0 {
		if err := c.rdb.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, err
		}
	}
	return incr.Val() > int64(max), nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *Client) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

func cartKey(userID string) string {
	return "cart:" + userID
}

// CartItems returns the user's cart as product id to quantity.
func (c *Client) CartItems(ctx context.Context, userID string) (map[string]int, error) {
	raw, err := c.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	items := make(map[string]int, len(raw))
	for productID, v := range raw {
		qty, err := strconv.Atoi(v)
		if err != nil || qty <= 0 {
			continue
		}
		items[productID] = qty
	}
	return items, nil
}

// AddCartItem increments the quantity of a product and returns the new quantity.
func (c *Client) AddCartItem(ctx context.Context, userID, productID string, qty int) (int, error) {
	key := cartKey(userID)
	pipe := c.rdb.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, productID, int64(qty))
	pipe.Expire(ctx, key, cartTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// SetCartItem sets the quantity of a product; qty <= 0 removes the line.
func (c *Client) SetCartItem(ctx context.Context, userID, productID string, qty int) error {
	if qty <= 0 {
		return c.RemoveCartItem(ctx, userID, productID)
	}
	key := cartKey(userID)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, productID, qty)
	pipe.Expire(ctx, key, cartTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *Client) RemoveCartItem(ctx context.Context, userID, productID string) error {
	return c.rdb.HDel(ctx, cartKey(userID), productID).Err()
}

func (c *Client) ClearCart(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, cartKey(userID)).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

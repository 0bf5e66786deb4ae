package wardrobe

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache 合成结果缓存：同一组选择不重复合成。
// nil receiver 安全（未配置 redis 时直接跳过缓存）。
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("cache not configured")
	}
	return c.client.Ping(ctx).Err()
}

// GetComposite 缓存未命中返回 (nil, nil)
func (c *Cache) GetComposite(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, "composite:"+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (c *Cache) SetComposite(ctx context.Context, key string, data []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, "composite:"+key, data, c.ttl).Err()
}

func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

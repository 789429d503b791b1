package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache fino sobre Redis para as leituras públicas (médicos,
// disponibilidade). Falha de cache nunca falha a requisição:
// qualquer erro vira cache miss.
type Cache struct {
	client *redis.Client
}

func New(addr string) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("cache: redis indisponível em %s: %v", addr, err)
	}

	return &Cache{client: client}
}

func (c *Cache) GetJSON(ctx context.Context, key string, out any) bool {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("cache: payload corrompido em %s: %v", key, err)
		return false
	}

	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache: del: %v", err)
	}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Package cache cachea lecturas on-chain (roles, registros) para no pegarle
// al RPC en cada request.
//
// Soporta:
//   - Memory (go-cache, in-process)
//   - Redis (compartido entre réplicas)
package cache

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound la key no existe o expiró.
var ErrNotFound = errors.New("cache: key not found")

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor. ttl 0 = sin expiración.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// ─── Memory ───

type memoryClient struct {
	prefix string
	c      *gocache.Cache
}

// NewMemory crea un cache en proceso.
func NewMemory(prefix string) Client {
	return &memoryClient{prefix: prefix, c: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (m *memoryClient) key(k string) string {
	if m.prefix == "" {
		return k
	}
	return m.prefix + ":" + k
}

func (m *memoryClient) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(m.key(key))
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *memoryClient) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(m.key(key), value, ttl)
	return nil
}

func (m *memoryClient) Delete(_ context.Context, key string) error {
	m.c.Delete(m.key(key))
	return nil
}

func (m *memoryClient) Ping(context.Context) error { return nil }

// ─── Redis ───

type redisClient struct {
	client *redis.Client
	prefix string
}

// NewRedis usa un cliente ya conectado (el mismo que el rate limiter).
func NewRedis(client *redis.Client, prefix string) Client {
	return &redisClient{client: client, prefix: prefix}
}

func (c *redisClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *redisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *redisClient) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}

func (c *redisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// ─── Helpers ───

// Bool lee un flag cacheado; si no está, llama a load y guarda el resultado.
// Los errores de cache se ignoran: el cache nunca es la fuente de verdad.
func Bool(ctx context.Context, c Client, key string, ttl time.Duration, load func(context.Context) (bool, error)) (bool, error) {
	if c != nil {
		if v, err := c.Get(ctx, key); err == nil {
			return v == "1", nil
		}
	}
	v, err := load(ctx)
	if err != nil {
		return false, err
	}
	if c != nil {
		s := "0"
		if v {
			s = "1"
		}
		_ = c.Set(ctx, key, s, ttl)
	}
	return v, nil
}

package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
)

// Cache 以规范化后的邮编为键缓存查询结果，只缓存成功的查询
type Cache interface {
	Get(ctx context.Context, postcode string) (*domain.GeoResult, bool)
	Set(ctx context.Context, postcode string, geo *domain.GeoResult)
}

type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*domain.GeoResult, bool) { return nil, false }
func (NoopCache) Set(context.Context, string, *domain.GeoResult)        {}

// MemoryCache 是进程内有容量上限的 LRU 缓存，条目在 ttl 后过期
type MemoryCache struct {
	lru *expirable.LRU[string, domain.GeoResult]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1024
	}
	return &MemoryCache{lru: expirable.NewLRU[string, domain.GeoResult](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, postcode string) (*domain.GeoResult, bool) {
	geo, ok := c.lru.Get(postcode)
	if !ok {
		return nil, false
	}
	return &geo, true
}

func (c *MemoryCache) Set(_ context.Context, postcode string, geo *domain.GeoResult) {
	if geo == nil {
		return
	}
	c.lru.Add(postcode, *geo)
}

func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// RedisCache 在多个 API 实例之间共享查询结果
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: "geocode_"}
}

func (c *RedisCache) Get(ctx context.Context, postcode string) (*domain.GeoResult, bool) {
	data, err := c.rdb.Get(ctx, c.prefix+postcode).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("读取邮编缓存失败", "error", err)
		}
		return nil, false
	}

	geo := &domain.GeoResult{}
	if err := json.Unmarshal(data, geo); err != nil {
		return nil, false
	}
	return geo, true
}

func (c *RedisCache) Set(ctx context.Context, postcode string, geo *domain.GeoResult) {
	if geo == nil {
		return
	}
	data, err := json.Marshal(geo)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+postcode, data, c.ttl).Err(); err != nil {
		slog.Debug("写入邮编缓存失败", "error", err)
	}
}

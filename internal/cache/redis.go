package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisCache 基于Redis的读缓存，客户端为nil时所有操作直接返回未命中
// 用于地理位置与链接查询结果，不用于计分状态
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建Redis缓存，address为空时返回禁用的实例
// 连接失败同样降级为禁用实例，缓存不可用不影响服务启动
func NewRedisCache(address string) *RedisCache {
	if address == "" {
		return &RedisCache{}
	}

	var opt *redis.Options
	if parsed, err := redis.ParseURL(fmt.Sprintf("redis://%s", address)); err == nil {
		opt = parsed
	} else {
		opt = &redis.Options{Addr: address}
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 5

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnf("redis unavailable at %s, cache disabled: %v", address, err)
		return &RedisCache{}
	}

	return &RedisCache{client: client}
}

// Enabled 缓存是否可用
func (c *RedisCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// Get 读取缓存值，未命中或缓存不可用返回false
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set 写入缓存值，失败只记录不阻塞调用方
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete 删除缓存键
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

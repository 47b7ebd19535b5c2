package utils

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// InitRedis 初始化 Redis 连接（缓存失效通知和事件广播用）
func InitRedis(url, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       db,
	})

	// 测试连接
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("Redis connected")
	return rdb, nil
}

// CloseRedis 关闭 Redis 连接
func CloseRedis(rdb *redis.Client) error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}

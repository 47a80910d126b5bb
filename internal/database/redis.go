package database

import (
	"context"
	"fmt"
	"time"

	"pfotencard-backend/config"

	"github.com/go-redis/redis/v8"
)

// RedisClient backs the user cache and the token deny list. Both are skipped
// while it is nil.
var (
	RedisClient *redis.Client
	Ctx         = context.Background()
)

const redisDialTimeout = 5 * time.Second

func ConnectRedis(cfg *config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisFullAddr(),
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: redisDialTimeout,
	})

	ctx, cancel := context.WithTimeout(Ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("redis %s: %w", cfg.RedisFullAddr(), err)
	}

	RedisClient = client
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		RedisClient.Close()
		RedisClient = nil
	}
}

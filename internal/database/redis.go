// internal/database/redis.go
package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedis connects to redis from a URL. Returns nil when the URL is empty
// or the server is unreachable; the presence cache degrades to database
// reads in that case.
func NewRedis(url string, logger *zap.Logger) *redis.Client {
	if url == "" {
		logger.Warn("REDIS_URL not set, last-active caching disabled")
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("Failed to parse redis URL, last-active caching disabled", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Failed to connect to redis, last-active caching disabled", zap.Error(err))
		return nil
	}

	logger.Info("Redis connected")
	return client
}

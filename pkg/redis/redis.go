package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/translation-backend/config"
	"github.com/ikkim/translation-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init opens the shared Redis connection used by the export cache.
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	logger.Info("Initializing Redis connection", logger.Fields{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	c := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, logger.Fields{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		_ = c.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	client = c
	logger.Info("Redis connection established successfully")
	return c, nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		err := client.Close()
		client = nil
		return err
	}
	return nil
}

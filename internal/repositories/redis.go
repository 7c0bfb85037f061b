package repositories

import (
	"context"
	"fmt"
	"time"

	"vwallet/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisConfigFromEnv creates a RedisConfig from environment or defaults.
func RedisConfigFromEnv() RedisConfig {
	return RedisConfig{
		Host:         config.GetEnv("REDIS_HOST", "localhost"),
		Port:         config.GetEnv("REDIS_PORT", "6379"),
		Password:     config.GetEnv("REDIS_PASSWORD", ""),
		DB:           config.GetIntEnv("REDIS_DB", 0),
		PoolSize:     config.GetIntEnv("REDIS_POOL_SIZE", 10),
		MinIdleConns: config.GetIntEnv("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  config.GetDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  config.GetDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: config.GetDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Host + ":" + cfg.Port,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

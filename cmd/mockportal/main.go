package main

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/bizhub/portal-client/internal/config"
	"github.com/bizhub/portal-client/internal/mockportal"
	"github.com/bizhub/portal-client/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)

	// Redis is optional: with it the refresh-session registry and rate
	// limiter survive restarts and can be shared across instances;
	// without it everything runs in memory.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("cannot reach Redis at %s:%s, using in-memory sessions: %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			redisClient = client
		}
	}

	r := mockportal.Router(cfg, mockportal.NewDeps(redisClient))

	addr := cfg.Mock.Host + ":" + cfg.Mock.Port
	logger.Infof("mock portal backend listening on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

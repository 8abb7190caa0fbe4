package cache

import (
	"context"
	"time"

	"youtube-downloader/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// NewCache connects to redis and pings it once.
// The client is returned even when the ping fails so callers may decide to continue without it.
func NewCache(ctx context.Context, addr, username, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).WithField("addr", addr).Warn("Redis ping failed")
		return client, err
	}
	return client, nil
}

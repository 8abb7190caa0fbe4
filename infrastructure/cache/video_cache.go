package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"youtube-downloader/domain/model"
	"youtube-downloader/domain/repository"

	"github.com/redis/go-redis/v9"
)

const videoMetadataKeyPrefix = "video:metadata:"

// VideoCache stores video metadata as JSON strings in redis.
// A nil client turns every call into a miss.
type VideoCache struct {
	client redis.Cmdable
}

func NewVideoCache(client redis.Cmdable) repository.IVideoCache {
	if rc, ok := client.(*redis.Client); ok && rc == nil {
		client = nil
	}
	return &VideoCache{client: client}
}

func videoMetadataKey(videoID string) string {
	return videoMetadataKeyPrefix + videoID
}

func (c *VideoCache) GetMetadata(ctx context.Context, videoID string) (*model.VideoMetadata, error) {
	if c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, videoMetadataKey(videoID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached metadata %s: %w", videoID, err)
	}
	var metadata model.VideoMetadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("decode cached metadata %s: %w", videoID, err)
	}
	return &metadata, nil
}

func (c *VideoCache) SetMetadata(ctx context.Context, videoID string, metadata *model.VideoMetadata, ttl time.Duration) error {
	if c.client == nil || metadata == nil {
		return nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, videoMetadataKey(videoID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set cached metadata %s: %w", videoID, err)
	}
	return nil
}

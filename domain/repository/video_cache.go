package repository

import (
	"context"
	"time"

	"youtube-downloader/domain/model"
)

// IVideoCache defines a cache for resolved video metadata
type IVideoCache interface {
	// GetMetadata returns cached metadata, or nil on a miss.
	GetMetadata(ctx context.Context, videoID string) (*model.VideoMetadata, error)
	// SetMetadata stores metadata with a TTL from now.
	SetMetadata(ctx context.Context, videoID string, metadata *model.VideoMetadata, ttl time.Duration) error
}

package repository

import (
	"context"

	"youtube-downloader/domain/model"
)

// IVideoExtractor resolves watch URLs through the video host.
// Implementations return the host's failure text as the error message.
type IVideoExtractor interface {
	// GetVideo fetches metadata and the list of available encodings
	GetVideo(ctx context.Context, url string) (*model.Video, error)
	// OpenStream opens the remote byte source of one encoding returned by GetVideo
	OpenStream(ctx context.Context, video *model.Video, format model.VideoFormat) (*model.VideoStream, error)
}

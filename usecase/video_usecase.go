package usecase

import (
	"context"
	"errors"
	"time"

	"youtube-downloader/domain/model"
	"youtube-downloader/domain/repository"
	"youtube-downloader/infrastructure/logger"
	"youtube-downloader/infrastructure/utils"

	"golang.org/x/sync/singleflight"
)

const progressiveContainer = "mp4"

// IVideoUsecase resolves metadata and downloadable streams for watch URLs
type IVideoUsecase interface {
	GetVideoInfo(ctx context.Context, url string) (*model.VideoMetadata, error)
	// OpenDownload resolves metadata and opens the first progressive MP4 stream.
	// The caller must close the returned stream.
	OpenDownload(ctx context.Context, url string) (*model.Download, error)
}

// VideoUsecase implements IVideoUsecase
type VideoUsecase struct {
	extractor         repository.IVideoExtractor
	cache             repository.IVideoCache // optional
	cacheTTL          time.Duration
	extractionTimeout time.Duration
	lookups           singleflight.Group
}

func NewVideoUsecase(extractor repository.IVideoExtractor) *VideoUsecase {
	return &VideoUsecase{extractor: extractor}
}

// WithCache enables cache-aside metadata lookups (fluent)
func (u *VideoUsecase) WithCache(cache repository.IVideoCache, ttl time.Duration) *VideoUsecase {
	u.cache = cache
	u.cacheTTL = ttl
	return u
}

// WithExtractionTimeout bounds each metadata lookup; zero disables the bound (fluent)
func (u *VideoUsecase) WithExtractionTimeout(timeout time.Duration) *VideoUsecase {
	u.extractionTimeout = timeout
	return u
}

// GetVideoInfo returns metadata for url, consulting the cache first when configured
func (u *VideoUsecase) GetVideoInfo(ctx context.Context, url string) (*model.VideoMetadata, error) {
	videoID, ok := utils.YouTubeVideoID(url)
	if !ok {
		return nil, ErrInvalidURL
	}

	if u.cache != nil {
		cached, err := u.cache.GetMetadata(ctx, videoID)
		if err != nil {
			logger.GetLogger().WithField("error", err).WithField("videoId", videoID).Warn("Metadata cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	video, err := u.sharedLookup(ctx, videoID, url)
	if err != nil {
		return nil, err
	}
	metadata := video.Metadata

	if u.cache != nil {
		if err := u.cache.SetMetadata(ctx, videoID, &metadata, u.cacheTTL); err != nil {
			logger.GetLogger().WithField("error", err).WithField("videoId", videoID).Warn("Metadata cache write failed")
		}
	}
	return &metadata, nil
}

// OpenDownload resolves the video and opens its first progressive MP4 stream
func (u *VideoUsecase) OpenDownload(ctx context.Context, url string) (*model.Download, error) {
	if !utils.IsValidYouTubeURL(url) {
		return nil, ErrInvalidURL
	}

	video, err := u.getVideo(ctx, url)
	if err != nil {
		return nil, err
	}

	format, ok := video.Formats.FirstProgressive(progressiveContainer)
	if !ok {
		logger.GetLogger().WithField("videoId", video.ID).WithField("formats", len(video.Formats)).Info("No progressive MP4 encoding")
		return nil, ErrStreamNotFound
	}

	stream, err := u.extractor.OpenStream(ctx, video, format)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("videoId", video.ID).WithField("itag", format.Itag).Error("Failed to open stream")
		return nil, ErrStreamNotFound
	}

	return &model.Download{
		Metadata: video.Metadata,
		Stream:   stream,
	}, nil
}

// sharedLookup collapses concurrent lookups of one video into a single upstream call.
// The call is detached from any one caller; each caller stops waiting when its own ctx is done.
func (u *VideoUsecase) sharedLookup(ctx context.Context, videoID, url string) (*model.Video, error) {
	detached := context.WithoutCancel(ctx)
	ch := u.lookups.DoChan(videoID, func() (interface{}, error) {
		return u.getVideo(detached, url)
	})

	select {
	case <-ctx.Done():
		return nil, NewExtractionError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Video), nil
	}
}

func (u *VideoUsecase) getVideo(ctx context.Context, url string) (*model.Video, error) {
	if u.extractionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.extractionTimeout)
		defer cancel()
	}

	video, err := u.extractor.GetVideo(ctx, url)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("url", url).Error("Failed to resolve video")
		var extractionErr *ExtractionError
		if errors.As(err, &extractionErr) {
			return nil, extractionErr
		}
		return nil, NewExtractionError(err)
	}
	if video == nil {
		return nil, &ExtractionError{Message: "no video data returned"}
	}
	return video, nil
}

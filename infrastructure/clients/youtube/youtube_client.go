package youtube

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"youtube-downloader/domain/model"
	"youtube-downloader/domain/repository"

	"github.com/kkdai/youtube/v2"
)

// Client resolves watch URLs with github.com/kkdai/youtube
type Client struct {
	client *youtube.Client
}

// NewYouTubeClient creates an extractor. A nil httpClient uses http.DefaultClient.
func NewYouTubeClient(httpClient *http.Client) repository.IVideoExtractor {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		client: &youtube.Client{HTTPClient: httpClient},
	}
}

// GetVideo fetches player data for url. Errors are returned unchanged so the
// caller can surface the library's message.
func (c *Client) GetVideo(ctx context.Context, url string) (*model.Video, error) {
	video, err := c.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return toModel(video), nil
}

// OpenStream opens the byte source of format. The player data captured by
// GetVideo is reused when available.
func (c *Client) OpenStream(ctx context.Context, video *model.Video, format model.VideoFormat) (*model.VideoStream, error) {
	if video == nil {
		return nil, fmt.Errorf("video is required")
	}
	native, ok := video.Source.(*youtube.Video)
	if !ok || native == nil {
		var err error
		native, err = c.client.GetVideoContext(ctx, video.ID)
		if err != nil {
			return nil, err
		}
	}

	nativeFormat := findFormat(native.Formats, format.Itag)
	if nativeFormat == nil {
		return nil, fmt.Errorf("format %d is not offered for video %s", format.Itag, native.ID)
	}

	body, size, err := c.client.GetStreamContext(ctx, native, nativeFormat)
	if err != nil {
		return nil, err
	}
	return &model.VideoStream{
		Body:          body,
		ContentLength: size,
		Format:        format,
	}, nil
}

func findFormat(formats youtube.FormatList, itag int) *youtube.Format {
	for i := range formats {
		if formats[i].ItagNo == itag {
			return &formats[i]
		}
	}
	return nil
}

func toModel(video *youtube.Video) *model.Video {
	formats := make(model.FormatList, 0, len(video.Formats))
	for _, f := range video.Formats {
		formats = append(formats, model.VideoFormat{
			Itag:          f.ItagNo,
			MimeType:      f.MimeType,
			QualityLabel:  f.QualityLabel,
			AudioChannels: f.AudioChannels,
			ContentLength: f.ContentLength,
		})
	}
	return &model.Video{
		ID: video.ID,
		Metadata: model.VideoMetadata{
			Title:           video.Title,
			Author:          video.Author,
			DurationSeconds: int64(video.Duration.Seconds()),
			ViewCount:       int64(video.Views),
			Description:     video.Description,
			PublishDate:     publishDate(video.PublishDate),
		},
		Formats: formats,
		Source:  video,
	}
}

func publishDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

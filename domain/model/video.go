package model

import (
	"io"
	"strings"
	"time"
)

// VideoMetadata is the normalized description of a single video
type VideoMetadata struct {
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	DurationSeconds int64      `json:"length"`
	ViewCount       int64      `json:"views"`
	Description     string     `json:"description"`
	// PublishDate is nil when the host does not report one, and encodes as null.
	PublishDate     *time.Time `json:"publish_date"`
}

// VideoFormat describes one encoding offered by the video host
type VideoFormat struct {
	Itag          int    `json:"itag"`
	MimeType      string `json:"mime_type"`
	QualityLabel  string `json:"quality_label"`
	AudioChannels int    `json:"audio_channels"`
	ContentLength int64  `json:"content_length"`
}

// MediaType returns the MIME type without parameters, e.g. "video/mp4"
func (f VideoFormat) MediaType() string {
	mediaType, _, _ := strings.Cut(f.MimeType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// Container returns the MIME subtype, e.g. "mp4" or "webm"
func (f VideoFormat) Container() string {
	_, subtype, found := strings.Cut(f.MediaType(), "/")
	if !found {
		return ""
	}
	return subtype
}

// IsProgressive reports whether the encoding carries audio and video in one file
func (f VideoFormat) IsProgressive() bool {
	return strings.HasPrefix(f.MediaType(), "video/") && f.AudioChannels > 0
}

type FormatList []VideoFormat

// FirstProgressive returns the first progressive encoding in the given container
func (l FormatList) FirstProgressive(container string) (VideoFormat, bool) {
	for _, f := range l {
		if f.IsProgressive() && f.Container() == container {
			return f, true
		}
	}
	return VideoFormat{}, false
}

// Video is the resolved view of a watch URL.
// Source holds the extraction provider's own descriptor and is only meaningful to that provider.
type Video struct {
	ID       string
	Metadata VideoMetadata
	Formats  FormatList
	Source   any
}

// VideoStream is the remote byte source of one selected format.
// The request that opened it owns Body and must close it.
type VideoStream struct {
	Body          io.ReadCloser
	ContentLength int64
	Format        VideoFormat
}

func (s *VideoStream) Close() error {
	if s == nil || s.Body == nil {
		return nil
	}
	return s.Body.Close()
}

// Download pairs the stream with the metadata needed to name the file
type Download struct {
	Metadata VideoMetadata
	Stream   *VideoStream
}

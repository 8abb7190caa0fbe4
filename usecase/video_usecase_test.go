package usecase_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"youtube-downloader/domain/model"
	"youtube-downloader/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const watchURL = "https://www.youtube.com/watch?v=abc123"

type MockVideoExtractor struct {
	mock.Mock
}

func (m *MockVideoExtractor) GetVideo(ctx context.Context, url string) (*model.Video, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Video), args.Error(1)
}

func (m *MockVideoExtractor) OpenStream(ctx context.Context, video *model.Video, format model.VideoFormat) (*model.VideoStream, error) {
	args := m.Called(ctx, video, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VideoStream), args.Error(1)
}

type MockVideoCache struct {
	mock.Mock
}

func (m *MockVideoCache) GetMetadata(ctx context.Context, videoID string) (*model.VideoMetadata, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VideoMetadata), args.Error(1)
}

func (m *MockVideoCache) SetMetadata(ctx context.Context, videoID string, metadata *model.VideoMetadata, ttl time.Duration) error {
	args := m.Called(ctx, videoID, metadata, ttl)
	return args.Error(0)
}

var progressiveMP4 = model.VideoFormat{Itag: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, AudioChannels: 2}

func sampleVideo(formats ...model.VideoFormat) *model.Video {
	return &model.Video{
		ID: "abc123",
		Metadata: model.VideoMetadata{
			Title:           "Sample",
			Author:          "Someone",
			DurationSeconds: 125,
			ViewCount:       1000,
			Description:     "A sample video",
			PublishDate:     timePtr(time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC)),
		},
		Formats: formats,
	}
}

func TestVideoUsecase_GetVideoInfo(t *testing.T) {
	extractor := new(MockVideoExtractor)
	video := sampleVideo(progressiveMP4)
	extractor.On("GetVideo", mock.Anything, watchURL).Return(video, nil).Once()

	md, err := usecase.NewVideoUsecase(extractor).GetVideoInfo(context.Background(), watchURL)

	require.NoError(t, err)
	assert.Equal(t, video.Metadata, *md)
	extractor.AssertExpectations(t)
}

func TestVideoUsecase_GetVideoInfo_InvalidURL(t *testing.T) {
	extractor := new(MockVideoExtractor)

	for _, url := range []string{"https://youtu.be/abc123", "", "not a url"} {
		md, err := usecase.NewVideoUsecase(extractor).GetVideoInfo(context.Background(), url)
		assert.Nil(t, md)
		assert.ErrorIs(t, err, usecase.ErrInvalidURL)
	}
	extractor.AssertNotCalled(t, "GetVideo", mock.Anything, mock.Anything)
}

func TestVideoUsecase_GetVideoInfo_ExtractionError(t *testing.T) {
	extractor := new(MockVideoExtractor)
	extractor.On("GetVideo", mock.Anything, watchURL).Return(nil, errors.New("this video is private")).Once()

	md, err := usecase.NewVideoUsecase(extractor).GetVideoInfo(context.Background(), watchURL)

	assert.Nil(t, md)
	var extractionErr *usecase.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, "this video is private", extractionErr.Message)
	extractor.AssertExpectations(t)
}

func TestVideoUsecase_GetVideoInfo_Idempotent(t *testing.T) {
	extractor := new(MockVideoExtractor)
	extractor.On("GetVideo", mock.Anything, watchURL).Return(sampleVideo(), nil).Twice()
	u := usecase.NewVideoUsecase(extractor)

	first, err := u.GetVideoInfo(context.Background(), watchURL)
	require.NoError(t, err)
	second, err := u.GetVideoInfo(context.Background(), watchURL)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	extractor.AssertExpectations(t)
}

func TestVideoUsecase_GetVideoInfo_ExtractionTimeout(t *testing.T) {
	extractor := new(MockVideoExtractor)
	extractor.On("GetVideo", mock.Anything, watchURL).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, ok := ctx.Deadline()
			assert.True(t, ok, "extraction context should carry a deadline")
		}).
		Return(sampleVideo(), nil).Once()

	_, err := usecase.NewVideoUsecase(extractor).
		WithExtractionTimeout(time.Second).
		GetVideoInfo(context.Background(), watchURL)

	require.NoError(t, err)
	extractor.AssertExpectations(t)
}

func TestVideoUsecase_GetVideoInfo_CacheHit(t *testing.T) {
	extractor := new(MockVideoExtractor)
	cache := new(MockVideoCache)
	cached := &sampleVideo().Metadata
	cache.On("GetMetadata", mock.Anything, "abc123").Return(cached, nil).Once()

	md, err := usecase.NewVideoUsecase(extractor).WithCache(cache, time.Minute).GetVideoInfo(context.Background(), watchURL)

	require.NoError(t, err)
	assert.Equal(t, cached, md)
	extractor.AssertNotCalled(t, "GetVideo", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestVideoUsecase_GetVideoInfo_CacheMissStores(t *testing.T) {
	extractor := new(MockVideoExtractor)
	cache := new(MockVideoCache)
	video := sampleVideo()
	cache.On("GetMetadata", mock.Anything, "abc123").Return(nil, nil).Once()
	extractor.On("GetVideo", mock.Anything, watchURL).Return(video, nil).Once()
	cache.On("SetMetadata", mock.Anything, "abc123", &video.Metadata, 2*time.Minute).Return(nil).Once()

	md, err := usecase.NewVideoUsecase(extractor).WithCache(cache, 2*time.Minute).GetVideoInfo(context.Background(), watchURL)

	require.NoError(t, err)
	assert.Equal(t, video.Metadata, *md)
	extractor.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestVideoUsecase_GetVideoInfo_CacheErrorsAreIgnored(t *testing.T) {
	extractor := new(MockVideoExtractor)
	cache := new(MockVideoCache)
	video := sampleVideo()
	cache.On("GetMetadata", mock.Anything, "abc123").Return(nil, errors.New("redis down")).Once()
	extractor.On("GetVideo", mock.Anything, watchURL).Return(video, nil).Once()
	cache.On("SetMetadata", mock.Anything, "abc123", mock.Anything, time.Minute).Return(errors.New("redis down")).Once()

	md, err := usecase.NewVideoUsecase(extractor).WithCache(cache, time.Minute).GetVideoInfo(context.Background(), watchURL)

	require.NoError(t, err)
	assert.Equal(t, "Sample", md.Title)
	cache.AssertExpectations(t)
}

func TestVideoUsecase_OpenDownload(t *testing.T) {
	extractor := new(MockVideoExtractor)
	webm := model.VideoFormat{Itag: 43, MimeType: `video/webm; codecs="vp8, vorbis"`, AudioChannels: 2}
	videoOnly := model.VideoFormat{Itag: 137, MimeType: `video/mp4; codecs="avc1.640028"`}
	video := sampleVideo(videoOnly, webm, progressiveMP4)
	stream := &model.VideoStream{Body: io.NopCloser(strings.NewReader("bytes")), ContentLength: 5, Format: progressiveMP4}
	extractor.On("GetVideo", mock.Anything, watchURL).Return(video, nil).Once()
	extractor.On("OpenStream", mock.Anything, video, progressiveMP4).Return(stream, nil).Once()

	download, err := usecase.NewVideoUsecase(extractor).OpenDownload(context.Background(), watchURL)

	require.NoError(t, err)
	assert.Equal(t, video.Metadata, download.Metadata)
	assert.Same(t, stream, download.Stream)
	extractor.AssertExpectations(t)
}

func TestVideoUsecase_OpenDownload_InvalidURL(t *testing.T) {
	extractor := new(MockVideoExtractor)

	_, err := usecase.NewVideoUsecase(extractor).OpenDownload(context.Background(), "https://youtu.be/abc123")

	assert.ErrorIs(t, err, usecase.ErrInvalidURL)
	extractor.AssertNotCalled(t, "GetVideo", mock.Anything, mock.Anything)
}

func TestVideoUsecase_OpenDownload_NoProgressiveMP4(t *testing.T) {
	extractor := new(MockVideoExtractor)
	video := sampleVideo(model.VideoFormat{Itag: 137, MimeType: `video/mp4; codecs="avc1.640028"`})
	extractor.On("GetVideo", mock.Anything, watchURL).Return(video, nil).Once()

	_, err := usecase.NewVideoUsecase(extractor).OpenDownload(context.Background(), watchURL)

	assert.ErrorIs(t, err, usecase.ErrStreamNotFound)
	extractor.AssertNotCalled(t, "OpenStream", mock.Anything, mock.Anything, mock.Anything)
}

func TestVideoUsecase_OpenDownload_StreamOpenFails(t *testing.T) {
	extractor := new(MockVideoExtractor)
	video := sampleVideo(progressiveMP4)
	extractor.On("GetVideo", mock.Anything, watchURL).Return(video, nil).Once()
	extractor.On("OpenStream", mock.Anything, video, progressiveMP4).Return(nil, errors.New("403 forbidden")).Once()

	_, err := usecase.NewVideoUsecase(extractor).OpenDownload(context.Background(), watchURL)

	assert.ErrorIs(t, err, usecase.ErrStreamNotFound)
	extractor.AssertExpectations(t)
}

func TestVideoUsecase_OpenDownload_ExtractionError(t *testing.T) {
	extractor := new(MockVideoExtractor)
	extractor.On("GetVideo", mock.Anything, watchURL).Return(nil, errors.New("video unavailable")).Once()

	_, err := usecase.NewVideoUsecase(extractor).OpenDownload(context.Background(), watchURL)

	assert.EqualError(t, err, "video unavailable")
	var extractionErr *usecase.ExtractionError
	assert.ErrorAs(t, err, &extractionErr)
}

// blockingExtractor counts GetVideo calls and holds each one until release is closed.
func blockingExtractor(video *model.Video, calls *int32, started chan<- context.Context, release <-chan struct{}) *MockVideoExtractor {
	extractor := new(MockVideoExtractor)
	extractor.On("GetVideo", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			atomic.AddInt32(calls, 1)
			started <- args.Get(0).(context.Context)
			<-release
		}).
		Return(video, nil)
	return extractor
}

func TestVideoUsecase_GetVideoInfo_ConcurrentLookupsShareOneCall(t *testing.T) {
	var calls int32
	started := make(chan context.Context, 8)
	release := make(chan struct{})
	u := usecase.NewVideoUsecase(blockingExtractor(sampleVideo(), &calls, started, release))

	urls := []string{watchURL, watchURL + "&t=10s", watchURL, "youtube.com/watch?v=abc123", watchURL + "&list=PL1"}
	results := make([]*model.VideoMetadata, len(urls))
	errs := make([]error, len(urls))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = u.GetVideoInfo(context.Background(), urls[0])
	}()
	<-started

	for i := 1; i < len(urls); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = u.GetVideoInfo(context.Background(), urls[i])
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for i := range urls {
		require.NoError(t, errs[i], urls[i])
		assert.Equal(t, "Sample", results[i].Title)
	}
}

func TestVideoUsecase_GetVideoInfo_CanceledCallerLeavesOthersRunning(t *testing.T) {
	var calls int32
	started := make(chan context.Context, 2)
	release := make(chan struct{})
	u := usecase.NewVideoUsecase(blockingExtractor(sampleVideo(), &calls, started, release))

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()

	firstErr := make(chan error, 1)
	go func() {
		_, err := u.GetVideoInfo(firstCtx, watchURL)
		firstErr <- err
	}()
	lookupCtx := <-started

	type result struct {
		md  *model.VideoMetadata
		err error
	}
	second := make(chan result, 1)
	go func() {
		md, err := u.GetVideoInfo(context.Background(), watchURL)
		second <- result{md, err}
	}()
	time.Sleep(100 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		var extractionErr *usecase.ExtractionError
		require.ErrorAs(t, err, &extractionErr)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("canceled caller kept waiting for the shared lookup")
	}
	assert.NoError(t, lookupCtx.Err(), "shared lookup must not follow one caller's cancellation")

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "Sample", got.md.Title)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func timePtr(t time.Time) *time.Time {
	return &t
}

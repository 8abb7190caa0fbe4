package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"youtube-downloader/domain/dto"
	"youtube-downloader/domain/model"
	"youtube-downloader/infrastructure/configuration"
	"youtube-downloader/infrastructure/logger"
	"youtube-downloader/infrastructure/relay"
	"youtube-downloader/infrastructure/utils"
	"youtube-downloader/usecase"

	"github.com/gin-gonic/gin"
)

const videoMimeType = "video/mp4"

// IVideoHandler defines the HTTP handlers of the service
type IVideoHandler interface {
	VideoInfo(ctx *gin.Context)
	Download(ctx *gin.Context)
	Healthz(ctx *gin.Context)
}

// VideoHandler implements IVideoHandler
type VideoHandler struct {
	videoUsecase usecase.IVideoUsecase
	download     configuration.Download
}

func NewVideoHandler(videoUsecase usecase.IVideoUsecase, download configuration.Download) IVideoHandler {
	return &VideoHandler{
		videoUsecase: videoUsecase,
		download:     download,
	}
}

// VideoInfo handles POST /video_info
func (h *VideoHandler) VideoInfo(ctx *gin.Context) {
	url, ok := bindURL(ctx)
	if !ok {
		return
	}

	metadata, err := h.videoUsecase.GetVideoInfo(ctx.Request.Context(), url)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, metadata)
}

// Download handles POST /download
func (h *VideoHandler) Download(ctx *gin.Context) {
	url, ok := bindURL(ctx)
	if !ok {
		return
	}

	reqCtx := ctx.Request.Context()
	if !h.download.CancelOnDisconnect {
		reqCtx = context.WithoutCancel(reqCtx)
	}
	if h.download.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, h.download.Timeout)
		defer cancel()
	}

	download, err := h.videoUsecase.OpenDownload(reqCtx, url)
	if err != nil {
		writeError(ctx, err)
		return
	}
	defer download.Stream.Close()

	disposition := utils.AttachmentDisposition(download.Metadata.Title + ".mp4")
	if h.download.Relay == configuration.RelayBuffer {
		h.sendBuffered(ctx, download, disposition)
		return
	}
	h.sendStream(reqCtx, ctx, download, disposition)
}

// sendBuffered reads the whole upstream body before responding, so upstream
// failures can still be reported as errors.
func (h *VideoHandler) sendBuffered(ctx *gin.Context, download *model.Download, disposition string) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, download.Stream.Body); err != nil {
		writeError(ctx, usecase.NewExtractionError(err))
		return
	}
	ctx.DataFromReader(http.StatusOK, int64(buf.Len()), videoMimeType, &buf, map[string]string{
		"Content-Disposition": disposition,
	})
}

// sendStream commits the headers and relays chunks as they arrive. Once the
// status is sent, upstream failures only truncate the body.
func (h *VideoHandler) sendStream(reqCtx context.Context, ctx *gin.Context, download *model.Download, disposition string) {
	ctx.Header("Content-Type", videoMimeType)
	ctx.Header("Content-Disposition", disposition)
	if n := download.Stream.ContentLength; n > 0 {
		ctx.Header("Content-Length", strconv.FormatInt(n, 10))
	}
	ctx.Status(http.StatusOK)

	written, err := relay.Copy(reqCtx, ctx.Writer, download.Stream.Body, h.download.ChunkSize)
	if err != nil {
		_ = ctx.Error(err)
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":   err,
			"written": written,
			"title":   download.Metadata.Title,
		}).Warn("Download relay ended early")
	}
}

// Healthz returns OK for health checks
func (h *VideoHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}

func bindURL(ctx *gin.Context) (string, bool) {
	var req dto.VideoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Error while unmarshal request body")
		writeError(ctx, usecase.ErrInvalidURL)
		return "", false
	}
	return req.URL, true
}

func writeError(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	status, message := errorResponse(err)
	ctx.JSON(status, dto.ErrorResponse{Error: message})
}

func errorResponse(err error) (int, string) {
	var extractionErr *usecase.ExtractionError
	switch {
	case errors.Is(err, usecase.ErrInvalidURL):
		return http.StatusBadRequest, usecase.ErrInvalidURL.Error()
	case errors.Is(err, usecase.ErrStreamNotFound):
		return http.StatusInternalServerError, usecase.ErrStreamNotFound.Error()
	case errors.As(err, &extractionErr):
		return http.StatusInternalServerError, extractionErr.Message
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

package server

import (
	httpHandler "youtube-downloader/interfaces/http"
	"youtube-downloader/interfaces/middleware"

	"github.com/gin-gonic/gin"
)

func InitiateRouter(videoHandler httpHandler.IVideoHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	// Registered on the engine so 404s and preflights carry the headers as well.
	router.Use(middleware.AllowAll()...)

	router.GET("/healthz", videoHandler.Healthz)
	router.POST("/video_info", videoHandler.VideoInfo)
	router.POST("/download", videoHandler.Download)

	return router
}

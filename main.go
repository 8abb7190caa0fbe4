package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"youtube-downloader/domain/repository"
	"youtube-downloader/infrastructure/cache"
	youtubeclient "youtube-downloader/infrastructure/clients/youtube"
	"youtube-downloader/infrastructure/configuration"
	"youtube-downloader/infrastructure/logger"
	httpHandler "youtube-downloader/interfaces/http"
	"youtube-downloader/server"
	"youtube-downloader/usecase"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	if loaded := configuration.LoadEnvFromFile("config.env", ".env"); len(loaded) > 0 {
		logger.GetLogger().WithField("files", loaded).Info("Loaded environment files")
	}

	flags := configuration.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logger.GetLogger().WithField("error", err).Error("Invalid command line")
		os.Exit(2)
	}
	configuration.C = configuration.LoadConfig(flags)
	logger.Configure(configuration.C.Logger.Level, configuration.C.Logger.Format)
	gin.SetMode(configuration.C.App.Mode)

	videoUsecase := usecase.NewVideoUsecase(youtubeclient.NewYouTubeClient(nil)).
		WithExtractionTimeout(configuration.C.Extraction.Timeout)
	if videoCache := initiateCache(ctx); videoCache != nil {
		videoUsecase = videoUsecase.WithCache(videoCache, configuration.C.RedisClient.TTL)
	}

	videoHandler := httpHandler.NewVideoHandler(videoUsecase, configuration.C.Download)
	router := server.InitiateRouter(videoHandler)

	app := configuration.C.App
	logger.GetLogger().WithFields(map[string]interface{}{
		"addr":  app.Addr(),
		"relay": configuration.C.Download.Relay,
	}).Info("Starting application")
	httpServer = &http.Server{
		Addr:              app.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Graceful shutdown incomplete")
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// initiateCache returns nil when redis is disabled or unreachable; the service runs without it.
func initiateCache(ctx context.Context) repository.IVideoCache {
	rc := configuration.C.RedisClient
	if !rc.Enabled {
		return nil
	}
	redisClient, err := cache.NewCache(ctx, rc.Addr(), rc.Username, rc.Password, rc.DB)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - continuing without metadata cache")
		_ = redisClient.Close()
		return nil
	}
	logger.GetLogger().WithField("addr", rc.Addr()).Info("Redis client initialized successfully.")
	return cache.NewVideoCache(redisClient)
}

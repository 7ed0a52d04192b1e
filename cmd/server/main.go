package main

import (
	// Standard library
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	// External dependencies
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	// Internal packages
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/api"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/audit"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/config"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/diarize"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/media"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/middleware"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/pipeline"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/queue"
	"github.com/houzhh15/transcribe-gateway/cmd/server/internal/whisper"
	"github.com/houzhh15/transcribe-gateway/pkg/logger"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "optional YAML config file; environment variables override it")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("transcribe-gateway", version)
		return
	}

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logInstance, err := logger.Init(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("ENV"),
		WithSource:  !strings.EqualFold(os.Getenv("ENV"), "production"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "gateway")

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "addr", cfg.ServerAddr())
	fmt.Println(cfg.Summary())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := os.MkdirAll(cfg.Media.TempDir, 0o755); err != nil {
		appLogger.Error("temp dir unavailable", "dir", cfg.Media.TempDir, "error", err)
		os.Exit(1)
	}

	// Transcriber registry: one faster-whisper instance per model config key.
	registry := whisper.NewRegistry(func(model string) (whisper.Transcriber, error) {
		return whisper.NewFasterWhisper(whisper.FasterWhisperConfig{
			PythonBin:   cfg.Whisper.PythonBin,
			Model:       model,
			ComputeType: cfg.Whisper.ComputeType,
			CPUThreads:  cfg.Whisper.CPUThreads,
			NumWorkers:  cfg.Whisper.NumWorkers,
		}), nil
	}, cfg.Whisper.CPUThreads, cfg.Whisper.NumWorkers, cfg.Whisper.ComputeType)

	if cfg.Whisper.PreloadModel {
		model := whisper.NormalizeModelName(cfg.Whisper.DefaultModel, cfg.Whisper.DefaultModel, cfg.Whisper.ModelBaseDir)
		if _, err := registry.Get(model); err != nil {
			appLogger.Warn("default model preload failed", "model", model, "error", err)
		} else {
			appLogger.Info("default model ready", "model", model)
		}
	}

	pre := media.NewPreprocessor(cfg.Media.FFmpegBin)
	if !pre.Available() {
		appLogger.Warn("ffmpeg not found, preprocessing requests fall back to raw audio", "bin", cfg.Media.FFmpegBin)
	}

	var diarizer diarize.Diarizer
	if cfg.DiarizationEnabled() {
		diarizer = diarize.NewPyannote(diarize.PyannoteConfig{
			BaseURL:   cfg.Diarization.URL,
			AuthToken: cfg.Diarization.AuthToken,
			Model:     cfg.Diarization.Model,
		})
		appLogger.Info("diarization sidecar configured", "url", cfg.Diarization.URL, "model", cfg.Diarization.Model)
	} else {
		appLogger.Info("diarization disabled, DIARIZATION_URL not set")
	}

	runner := pipeline.New(pipeline.Config{
		TempDir:         cfg.Media.TempDir,
		DefaultLanguage: cfg.Whisper.DefaultLanguage,
		DefaultModel:    cfg.Whisper.DefaultModel,
		DefaultQuality:  cfg.Whisper.DefaultQuality,
		ModelBaseDir:    cfg.Whisper.ModelBaseDir,
		CPUThreads:      cfg.Whisper.CPUThreads,
		NumWorkers:      cfg.Whisper.NumWorkers,
	}, queue.New(cfg.Queue.MaxConcurrent), registry, pre, diarizer, appLogger.With("component", "pipeline"))

	auditLogger := audit.New(cfg.Audit.LogPath)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	api.NewHandler(cfg, runner, registry, pre, auditLogger).Routes(r)

	srv := &http.Server{
		Addr:    cfg.ServerAddr(),
		Handler: r,
	}

	go func() {
		appLogger.Info("server starting", "addr", cfg.ServerAddr(), "env", cfg.Server.Env, "max_concurrent", cfg.Queue.MaxConcurrent)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}

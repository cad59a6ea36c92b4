package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"clinote/internal/bot"
	"clinote/internal/config"
	"clinote/internal/ocr"
	"clinote/internal/pipeline"
	"clinote/internal/scheduler"
	"clinote/internal/server"
	"clinote/internal/summarizer"
	"clinote/internal/telemetry"
)

const (
	shutdownTimeout    = 15 * time.Second
	writeTimeoutMargin = 30 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).ErrorContext(ctx, "Failed to load config",
			"error", err)

		return 1
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	gin.SetMode(gin.ReleaseMode)

	metrics := telemetry.New()

	service := summarizer.NewOpenAIService(cfg.ModelBaseURL, cfg.ModelAPIKey)
	client, err := summarizer.NewClient(service, summarizer.Options{
		Model:           cfg.ModelName,
		RequestTimeout:  cfg.RequestTimeout,
		LivenessTimeout: cfg.LivenessTimeout,
		LivenessRetries: cfg.LivenessRetries,
	}, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create model client",
			"error", err,
			"model", cfg.ModelName)

		return 1
	}
	log.InfoContext(ctx, "Model client is initialized",
		"baseURL", cfg.ModelBaseURL,
		"model", cfg.ModelName,
		"livenessRetries", cfg.LivenessRetries)

	extractor := newExtractor(cfg, log)
	log.InfoContext(ctx, "OCR engine is initialized",
		"engine", cfg.OCREngine)

	pipe, err := pipeline.New(client, extractor, metrics, cfg.OCRTimeout, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create pipeline",
			"error", err)

		return 1
	}

	sched := scheduler.New(ctx, cfg.ModelWatchSpec, client, metrics, log)
	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", sched.Spec())

		return 1
	}
	defer sched.Stop()
	log.InfoContext(ctx, "Scheduler is started",
		"spec", sched.Spec())

	var botInst *bot.Bot
	if cfg.TelegramEnabled() {
		botInst, err = bot.New(cfg.TelegramToken, pipe, bot.Options{
			AllowedUsers:  cfg.AllowedUsers,
			MaxFileBytes:  cfg.MaxUploadBytes,
			UpdateTimeout: cfg.RequestTimeout + cfg.OCRTimeout,
		}, log)
		if err != nil {
			log.ErrorContext(ctx, "Failed to initialize bot",
				"error", err,
				"allowedUsersCount", len(cfg.AllowedUsers))

			return 1
		}
	}

	srv := server.New(pipe, client, metrics.Handler(), server.Options{
		Addr:           cfg.HTTPAddr,
		ModelName:      cfg.ModelName,
		MaxUploadBytes: cfg.MaxUploadBytes,
		CORSOrigins:    cfg.CORSOrigins,
		WriteTimeout:   cfg.RequestTimeout + cfg.OCRTimeout + writeTimeoutMargin,
	}, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	if botInst != nil {
		g.Go(func() error {
			botInst.Start(gctx)
			return nil
		})
		log.InfoContext(ctx, "Bot is started",
			"allowedUsersCount", len(cfg.AllowedUsers),
			"updateTimeoutSeconds", bot.BotUpdateTimeout)
	}

	g.Go(func() error {
		<-gctx.Done()

		log.InfoContext(ctx, "Exiting...",
			"uptimeSeconds", time.Since(start).Seconds())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		return srv.Shutdown(shutdownCtx)
	})

	exitCode := 0
	if err = g.Wait(); err != nil {
		log.ErrorContext(ctx, "HTTP server failed",
			"error", err,
			"addr", cfg.HTTPAddr)

		exitCode = 1
	}

	if botInst != nil {
		botInst.Stop()
		log.InfoContext(ctx, "Bot is stopped",
			"uptimeSeconds", time.Since(start).Seconds())
	}

	return exitCode
}

func newExtractor(cfg config.Config, log *slog.Logger) ocr.Extractor {
	if cfg.OCREngine == config.OCREngineVision {
		return ocr.NewVision(cfg.ModelBaseURL, cfg.ModelAPIKey, cfg.VisionModel, cfg.OCRMaxDimension, log)
	}

	return ocr.NewTesseract(ocr.TesseractOptions{
		Path:         cfg.TesseractPath,
		Langs:        cfg.TesseractLangs,
		MaxDimension: cfg.OCRMaxDimension,
	}, log)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	defaultMaxUploadBytes = 10 << 20
	readHeaderTimeout     = 10 * time.Second
	idleTimeout           = 60 * time.Second
	corsMaxAge            = 12 * time.Hour
)

// Pipeline is the summarization entry point shared with the bot.
type Pipeline interface {
	SummarizeText(ctx context.Context, text string) (string, error)
	SummarizeImage(ctx context.Context, image []byte) (string, error)
}

// Pinger reports whether the model service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Addr           string
	ModelName      string
	MaxUploadBytes int64
	CORSOrigins    []string
	// WriteTimeout must cover the model request timeout plus OCR.
	WriteTimeout time.Duration
}

type Server struct {
	pipeline Pipeline
	pinger   Pinger
	opts     Options
	log      *slog.Logger

	router *gin.Engine
	http   *http.Server
}

// New builds the router. metrics may be nil, in which case /metrics is not
// registered.
func New(pipeline Pipeline, pinger Pinger, metrics http.Handler, opts Options, log *slog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		pipeline: pipeline,
		pinger:   pinger,
		opts:     opts,
		log:      log,
	}

	router := gin.New()
	router.Use(recovery(log))
	router.Use(requestID())
	router.Use(accessLog(log))
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        corsMaxAge,
		}))
	}

	router.GET("/", s.handleIndex)
	router.GET("/healthz", s.handleHealth)
	router.GET("/readyz", s.handleReady)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
	router.POST("/summarize", s.handleSummarize)
	router.POST("/ocr-summarize", s.handleOCRSummarize)

	s.router = router
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       idleTimeout,
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A graceful Shutdown yields nil.
func (s *Server) Start() error {
	s.log.Info("HTTP server is starting",
		"addr", s.opts.Addr,
		"model", s.opts.ModelName,
		"maxUploadBytes", s.opts.MaxUploadBytes)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

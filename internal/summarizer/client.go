package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"clinote/internal/domain"
	"clinote/internal/prompt"
)

const (
	defaultRequestTimeout  = 120 * time.Second
	defaultLivenessTimeout = 5 * time.Second
	defaultRetryInterval   = 500 * time.Millisecond
)

type Options struct {
	// Model is the identifier sent with every generation call.
	Model string
	// RequestTimeout bounds a whole Summarize call, liveness included.
	RequestTimeout time.Duration
	// LivenessTimeout bounds each liveness attempt.
	LivenessTimeout time.Duration
	// LivenessRetries is the number of extra liveness attempts. Generation is never retried.
	LivenessRetries int
	// RetryInterval is the first backoff delay between liveness attempts.
	RetryInterval time.Duration
}

// Client runs one liveness check and at most one generation per call.
type Client struct {
	service ModelService
	opts    Options
	log     *slog.Logger
}

func NewClient(service ModelService, opts Options, log *slog.Logger) (*Client, error) {
	if service == nil {
		return nil, errors.New("model service is nil")
	}

	opts.Model = strings.TrimSpace(opts.Model)
	if opts.Model == "" {
		return nil, errors.New("model name is empty")
	}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.LivenessTimeout <= 0 {
		opts.LivenessTimeout = defaultLivenessTimeout
	}
	if opts.LivenessRetries < 0 {
		opts.LivenessRetries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}

	return &Client{
		service: service,
		opts:    opts,
		log:     log,
	}, nil
}

func (c *Client) Model() string {
	return c.opts.Model
}

// Summarize returns the model's summary unmodified, or a *domain.Error.
func (c *Client) Summarize(ctx context.Context, normalized string) (string, error) {
	if strings.TrimSpace(normalized) == "" {
		return "", domain.ErrEmptyInput
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	if err := c.checkLiveness(ctx); err != nil {
		return "", err
	}

	start := time.Now()

	content, err := c.service.Chat(ctx, c.opts.Model, prompt.Build(normalized))
	if err != nil {
		kind := Classify(err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = domain.KindTimeout
		}

		c.log.ErrorContext(ctx, "Failed to generate summary",
			"error", err,
			"kind", kind.String(),
			"model", c.opts.Model,
			"durationMs", time.Since(start).Milliseconds())

		return "", domain.NewError(kind, fmt.Errorf("chat: %w", err))
	}

	if strings.TrimSpace(content) == "" {
		c.log.WarnContext(ctx, "Model returned empty content",
			"model", c.opts.Model,
			"durationMs", time.Since(start).Milliseconds())

		return "", domain.ErrEmptyResponse
	}

	c.log.InfoContext(ctx, "Summary is generated",
		"model", c.opts.Model,
		"noteLen", len(normalized),
		"summaryLen", len(content),
		"durationMs", time.Since(start).Milliseconds())

	return content, nil
}

// Ping runs a single liveness probe with the configured timeout.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.LivenessTimeout)
	defer cancel()

	return c.service.Ping(ctx)
}

func (c *Client) checkLiveness(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.RetryInterval
	policy.MaxElapsedTime = 0

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++

		return c.Ping(ctx)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.opts.LivenessRetries)), ctx))
	if err == nil {
		return nil
	}

	kind := domain.KindServiceUnavailable
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = domain.KindTimeout
	}

	c.log.WarnContext(ctx, "Model service liveness check failed",
		"error", err,
		"kind", kind.String(),
		"attempts", attempts)

	return domain.NewError(kind, fmt.Errorf("liveness: %w", err))
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clinote/internal/domain"
	"clinote/internal/normalizer"
	"clinote/internal/ocr"
	"clinote/internal/summarizer"
	"clinote/internal/telemetry"
)

const (
	defaultOCRTimeout = 60 * time.Second

	ocrOutcomeFailed   = "failed"
	ocrOutcomeCanceled = "canceled"
)

// Pipeline wires extraction, normalization and summarization for one request.
// It keeps no per-request state and is safe for concurrent use.
type Pipeline struct {
	summarizer summarizer.Summarizer
	extractor  ocr.Extractor
	metrics    *telemetry.Metrics
	ocrTimeout time.Duration
	log        *slog.Logger
}

func New(
	s summarizer.Summarizer,
	extractor ocr.Extractor,
	metrics *telemetry.Metrics,
	ocrTimeout time.Duration,
	log *slog.Logger,
) (*Pipeline, error) {
	var errs []error
	if s == nil {
		errs = append(errs, errors.New("summarizer is nil"))
	}
	if extractor == nil {
		errs = append(errs, errors.New("extractor is nil"))
	}
	if metrics == nil {
		errs = append(errs, errors.New("metrics is nil"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if ocrTimeout <= 0 {
		ocrTimeout = defaultOCRTimeout
	}

	return &Pipeline{
		summarizer: s,
		extractor:  extractor,
		metrics:    metrics,
		ocrTimeout: ocrTimeout,
		log:        log,
	}, nil
}

// SummarizeText normalizes a typed note and summarizes it.
func (p *Pipeline) SummarizeText(ctx context.Context, text string) (string, error) {
	start := time.Now()

	summary, err := p.summarizeText(ctx, text)
	p.finish(ctx, domain.SourceText, len(text), err, time.Since(start))

	return summary, err
}

// SummarizeImage extracts text from a PNG or JPEG and summarizes it. The
// model is never called when extraction yields no text.
func (p *Pipeline) SummarizeImage(ctx context.Context, image []byte) (string, error) {
	start := time.Now()

	summary, err := p.summarizeImage(ctx, image)
	p.finish(ctx, domain.SourceImage, len(image), err, time.Since(start))

	return summary, err
}

func (p *Pipeline) summarizeImage(ctx context.Context, image []byte) (string, error) {
	extraction, err := p.extract(ctx, image)
	if err != nil {
		return "", err
	}

	if extraction.Failed() {
		return "", domain.ErrExtractionFailed
	}

	return p.summarizeText(ctx, extraction.Text)
}

func (p *Pipeline) extract(ctx context.Context, image []byte) (domain.Extraction, error) {
	ocrCtx, cancel := context.WithTimeout(ctx, p.ocrTimeout)
	defer cancel()

	start := time.Now()

	extraction, err := p.extractor.Extract(ocrCtx, image)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		p.metrics.RecordOCR(domain.KindTimeout.String(), time.Since(start))

		return domain.FailedExtraction(), domain.NewError(domain.KindTimeout, fmt.Errorf("extract: %w", err))
	case err != nil:
		// Extractors only fail once ctx is done, so this is a cancelled request.
		p.metrics.RecordOCR(ocrOutcomeCanceled, time.Since(start))

		return domain.FailedExtraction(), domain.NewError(domain.KindGenerationError, fmt.Errorf("extract: %w", err))
	case extraction.Failed():
		p.metrics.RecordOCR(ocrOutcomeFailed, time.Since(start))
	default:
		p.metrics.RecordOCR(telemetry.OutcomeOK, time.Since(start))
	}

	return extraction, nil
}

func (p *Pipeline) summarizeText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyInput
	}

	plain, err := normalizer.StripMarkup(text)
	if err != nil {
		p.log.WarnContext(ctx, "Failed to strip markup so raw text will be used",
			"error", err,
			"textLen", len(text))

		plain = text
	}

	normalized := normalizer.Normalize(plain)
	if normalized == "" {
		return "", domain.ErrEmptyInput
	}

	return p.summarizer.Summarize(ctx, normalized)
}

func (p *Pipeline) finish(ctx context.Context, source domain.Source, inputLen int, err error, d time.Duration) {
	p.metrics.RecordSummary(source, err, d)

	if err != nil {
		p.log.WarnContext(ctx, "Summary request failed",
			"source", string(source),
			"kind", domain.KindOf(err).String(),
			"inputLen", inputLen,
			"durationMs", d.Milliseconds())

		return
	}

	p.log.InfoContext(ctx, "Summary request succeeded",
		"source", string(source),
		"inputLen", inputLen,
		"durationMs", d.Milliseconds())
}

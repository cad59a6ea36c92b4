package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"clinote/internal/domain"
	"clinote/internal/telemetry"
)

type stubSummarizer struct {
	mu sync.Mutex

	summary string
	err     error
	calls   int
	inputs  []string
}

func (s *stubSummarizer) Summarize(_ context.Context, normalized string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.inputs = append(s.inputs, normalized)

	return s.summary, s.err
}

type stubExtractor struct {
	mu sync.Mutex

	extraction domain.Extraction
	blocks     bool
	calls      int
}

func (s *stubExtractor) Extract(ctx context.Context, _ []byte) (domain.Extraction, error) {
	s.mu.Lock()
	s.calls++
	blocks := s.blocks
	extraction := s.extraction
	s.mu.Unlock()

	if blocks {
		<-ctx.Done()
		return domain.FailedExtraction(), ctx.Err()
	}

	return extraction, nil
}

func newTestPipeline(t *testing.T, s *stubSummarizer, e *stubExtractor) (*Pipeline, *telemetry.Metrics) {
	t.Helper()

	metrics := telemetry.New()

	p, err := New(s, e, metrics, 50*time.Millisecond, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return p, metrics
}

func TestSummarizeTextNormalizesBeforeModel(t *testing.T) {
	s := &stubSummarizer{summary: "1. Chief Complaint: chest pain"}
	p, metrics := newTestPipeline(t, s, &stubExtractor{})

	summary, err := p.SummarizeText(context.Background(), "  Pt c/o CP.\n\n  Hx of HTN  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary != s.summary {
		t.Fatalf("unexpected summary: %q", summary)
	}

	want := "patient complains of chest pain history of hypertension"
	if len(s.inputs) != 1 || s.inputs[0] != want {
		t.Fatalf("expected normalized input %q, got %v", want, s.inputs)
	}

	if got := testutil.ToFloat64(metrics.SummariesTotal.WithLabelValues("text", "ok")); got != 1 {
		t.Fatalf("expected one recorded success, got %v", got)
	}
}

func TestSummarizeTextStripsMarkup(t *testing.T) {
	s := &stubSummarizer{summary: "ok"}
	p, _ := newTestPipeline(t, s, &stubExtractor{})

	_, err := p.SummarizeText(context.Background(), "<p>pt c/o <b>sob</b></p><script>x()</script>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.inputs[0] != "patient complains of shortness of breath" {
		t.Fatalf("unexpected normalized input: %q", s.inputs[0])
	}
}

func TestSummarizeTextEmptyInput(t *testing.T) {
	s := &stubSummarizer{summary: "ok"}
	p, metrics := newTestPipeline(t, s, &stubExtractor{})

	for _, input := range []string{"", "  \n\t ", "<p> </p>"} {
		_, err := p.SummarizeText(context.Background(), input)
		if !errors.Is(err, domain.ErrEmptyInput) {
			t.Fatalf("expected ErrEmptyInput for %q, got %v", input, err)
		}
	}

	if s.calls != 0 {
		t.Fatalf("expected summarizer not to be called, got %d calls", s.calls)
	}

	if got := testutil.ToFloat64(metrics.SummariesTotal.WithLabelValues("text", "empty_input")); got != 3 {
		t.Fatalf("expected three recorded failures, got %v", got)
	}
}

func TestSummarizeTextPassesModelErrors(t *testing.T) {
	s := &stubSummarizer{err: domain.NewError(domain.KindServiceUnavailable, errors.New("refused"))}
	p, _ := newTestPipeline(t, s, &stubExtractor{})

	_, err := p.SummarizeText(context.Background(), "pt c/o cp")
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestSummarizeImage(t *testing.T) {
	s := &stubSummarizer{summary: "1. Chief Complaint: shortness of breath"}
	e := &stubExtractor{extraction: domain.Extraction{Text: "Pt c/o SOB", Confidence: 1}}
	p, metrics := newTestPipeline(t, s, e)

	summary, err := p.SummarizeImage(context.Background(), []byte("png"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary != s.summary {
		t.Fatalf("unexpected summary: %q", summary)
	}

	if s.inputs[0] != "patient complains of shortness of breath" {
		t.Fatalf("unexpected normalized input: %q", s.inputs[0])
	}

	if got := testutil.ToFloat64(metrics.OCRTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected one ok extraction, got %v", got)
	}
}

func TestSummarizeImageExtractionFailedSkipsModel(t *testing.T) {
	s := &stubSummarizer{summary: "should not be used"}
	e := &stubExtractor{extraction: domain.FailedExtraction()}
	p, metrics := newTestPipeline(t, s, e)

	_, err := p.SummarizeImage(context.Background(), []byte("png"))
	if !errors.Is(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}

	if s.calls != 0 {
		t.Fatalf("expected model not to be called, got %d calls", s.calls)
	}

	if got := testutil.ToFloat64(metrics.SummariesTotal.WithLabelValues("image", "extraction_failed")); got != 1 {
		t.Fatalf("expected recorded extraction failure, got %v", got)
	}
}

func TestSummarizeImageRejectsUnusableExtractions(t *testing.T) {
	tests := []struct {
		name       string
		extraction domain.Extraction
	}{
		{name: "whitespace only", extraction: domain.Extraction{Text: "  \n ", Confidence: 1}},
		{name: "zero confidence with text", extraction: domain.Extraction{Text: "pt c/o cp", Confidence: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &stubSummarizer{summary: "should not be used"}
			e := &stubExtractor{extraction: tt.extraction}
			p, metrics := newTestPipeline(t, s, e)

			_, err := p.SummarizeImage(context.Background(), []byte("png"))
			if !errors.Is(err, domain.ErrExtractionFailed) {
				t.Fatalf("expected ErrExtractionFailed, got %v", err)
			}

			if s.calls != 0 {
				t.Fatalf("expected model not to be called, got %d calls", s.calls)
			}

			if got := testutil.ToFloat64(metrics.OCRTotal.WithLabelValues("failed")); got != 1 {
				t.Fatalf("expected one failed extraction, got %v", got)
			}
		})
	}
}

func TestSummarizeKeepsAngleBracketShorthand(t *testing.T) {
	s := &stubSummarizer{summary: "ok"}
	e := &stubExtractor{extraction: domain.Extraction{Text: "Pain for <a week>. Sats <O2 92%> on RA", Confidence: 1}}
	p, _ := newTestPipeline(t, s, e)

	if _, err := p.SummarizeText(context.Background(), "Pain for <a week>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := p.SummarizeImage(context.Background(), []byte("png")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Pain for <a week>", "Pain for <a week>. Sats <O2 92%> on RA"}
	if len(s.inputs) != 2 || s.inputs[0] != want[0] || s.inputs[1] != want[1] {
		t.Fatalf("expected shorthand to reach the model, got %q", s.inputs)
	}
}

func TestSummarizeImageOCRTimeout(t *testing.T) {
	s := &stubSummarizer{summary: "should not be used"}
	e := &stubExtractor{blocks: true}
	p, _ := newTestPipeline(t, s, e)

	_, err := p.SummarizeImage(context.Background(), []byte("png"))
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline to be wrapped, got %v", err)
	}

	if s.calls != 0 {
		t.Fatalf("expected model not to be called, got %d calls", s.calls)
	}
}

func TestSummarizeImageCanceledIsNotTimeout(t *testing.T) {
	s := &stubSummarizer{summary: "should not be used"}
	e := &stubExtractor{blocks: true}
	p, metrics := newTestPipeline(t, s, e)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.SummarizeImage(ctx, []byte("png"))
	if errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected cancellation not to be reported as a timeout, got %v", err)
	}

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to be wrapped, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.OCRTotal.WithLabelValues("canceled")); got != 1 {
		t.Fatalf("expected one canceled extraction, got %v", got)
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(nil, nil, nil, 0, slog.New(slog.DiscardHandler)); err == nil {
		t.Fatalf("expected error for missing collaborators")
	}
}

package ocr

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"testing"
)

type stubRunner struct {
	mu sync.Mutex

	outputs []string
	err     error
	calls   [][]string
	paths   []string
}

func (s *stubRunner) run(ctx context.Context, path string, args []string, _ []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, args)
	s.paths = append(s.paths, path)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.err != nil {
		return nil, s.err
	}

	out := s.outputs[0]
	if len(s.outputs) > 1 {
		s.outputs = s.outputs[1:]
	}

	return []byte(out), nil
}

func newTestTesseract(runner *stubRunner, opts TesseractOptions) *Tesseract {
	return newTesseract(opts, runner.run, slog.New(slog.DiscardHandler))
}

const longText = "Pt c/o CP x2 days, hx of HTN, BP 150/95"

func TestTesseractBlockPass(t *testing.T) {
	runner := &stubRunner{outputs: []string{"  " + longText + "\n\n"}}
	tess := newTestTesseract(runner, TesseractOptions{Path: "/usr/bin/tesseract", Langs: "eng"})

	got, err := tess.Extract(context.Background(), testPNG(t, 20, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Text != longText || got.Confidence != 1.0 {
		t.Fatalf("unexpected extraction: %+v", got)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected one pass, got %d", len(runner.calls))
	}

	want := []string{"stdin", "stdout", "--oem", "3", "--psm", "6", "-l", "eng"}
	if !slices.Equal(runner.calls[0], want) {
		t.Fatalf("unexpected args: %v", runner.calls[0])
	}

	if runner.paths[0] != "/usr/bin/tesseract" {
		t.Fatalf("unexpected path: %q", runner.paths[0])
	}
}

func TestTesseractSparseFallback(t *testing.T) {
	runner := &stubRunner{outputs: []string{"Pt c/o", longText}}
	tess := newTestTesseract(runner, TesseractOptions{})

	got, err := tess.Extract(context.Background(), testPNG(t, 20, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Text != longText {
		t.Fatalf("expected sparse pass text, got %q", got.Text)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("expected two passes, got %d", len(runner.calls))
	}

	if runner.calls[1][5] != "11" {
		t.Fatalf("expected psm 11 on second pass, got %v", runner.calls[1])
	}

	if runner.paths[0] != "tesseract" {
		t.Fatalf("expected default path, got %q", runner.paths[0])
	}

	if slices.Contains(runner.calls[0], "-l") {
		t.Fatalf("expected no -l without langs, got %v", runner.calls[0])
	}
}

func TestTesseractNoText(t *testing.T) {
	runner := &stubRunner{outputs: []string{" \n "}}
	tess := newTestTesseract(runner, TesseractOptions{})

	got, err := tess.Extract(context.Background(), testPNG(t, 20, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.Failed() || got.Confidence != 0 {
		t.Fatalf("expected failed extraction, got %+v", got)
	}
}

func TestTesseractEngineFailureIsNotAnError(t *testing.T) {
	runner := &stubRunner{err: errors.New("exec: \"tesseract\": executable file not found in $PATH")}
	tess := newTestTesseract(runner, TesseractOptions{})

	got, err := tess.Extract(context.Background(), testPNG(t, 20, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.Failed() {
		t.Fatalf("expected failed extraction, got %+v", got)
	}
}

func TestTesseractUnusableImage(t *testing.T) {
	inputs := map[string][]byte{
		"undecodable": []byte("GIF89a not really"),
		"oversized":   pngHeader(12000, 12000),
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			runner := &stubRunner{outputs: []string{longText}}
			tess := newTestTesseract(runner, TesseractOptions{})

			got, err := tess.Extract(context.Background(), input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !got.Failed() {
				t.Fatalf("expected failed extraction, got %+v", got)
			}

			if len(runner.calls) != 0 {
				t.Fatalf("expected tesseract not to run, got %d calls", len(runner.calls))
			}
		})
	}
}

func TestTesseractCanceledContext(t *testing.T) {
	runner := &stubRunner{outputs: []string{longText}}
	tess := newTestTesseract(runner, TesseractOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := tess.Extract(ctx, testPNG(t, 20, 20))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}

	if !got.Failed() {
		t.Fatalf("expected failed extraction, got %+v", got)
	}
}

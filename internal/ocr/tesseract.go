package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"clinote/internal/domain"
)

const (
	// uniform block of text
	psmBlock = 6
	// sparse text, used when the block pass finds too little
	psmSparse = 11

	minBlockPassChars = 30
)

// RunFunc executes the OCR binary with the given arguments and stdin and
// returns its stdout.
type RunFunc func(ctx context.Context, path string, args []string, stdin []byte) ([]byte, error)

type TesseractOptions struct {
	// Path to the tesseract binary.
	Path string
	// Langs is passed as -l, e.g. "eng" or "eng+deu". Empty leaves the default.
	Langs string
	// MaxDimension bounds the longest image side after preprocessing.
	MaxDimension int
}

// Tesseract shells out to the tesseract CLI.
type Tesseract struct {
	opts TesseractOptions
	run  RunFunc
	log  *slog.Logger
}

func NewTesseract(opts TesseractOptions, log *slog.Logger) *Tesseract {
	return newTesseract(opts, runCommand, log)
}

func newTesseract(opts TesseractOptions, run RunFunc, log *slog.Logger) *Tesseract {
	if strings.TrimSpace(opts.Path) == "" {
		opts.Path = "tesseract"
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = defaultMaxDimension
	}

	return &Tesseract{
		opts: opts,
		run:  run,
		log:  log,
	}
}

func (t *Tesseract) Extract(ctx context.Context, image []byte) (domain.Extraction, error) {
	start := time.Now()

	prepared, err := Preprocess(image, t.opts.MaxDimension)
	if err != nil {
		t.log.WarnContext(ctx, "Failed to preprocess image",
			"error", err,
			"imageBytes", len(image))

		return domain.FailedExtraction(), nil
	}

	text, err := t.recognize(ctx, prepared, psmBlock)
	if err != nil {
		return t.fail(ctx, err, psmBlock)
	}

	if len(text) < minBlockPassChars {
		t.log.DebugContext(ctx, "Block pass found little text so sparse pass will be used",
			"textLen", len(text))

		text, err = t.recognize(ctx, prepared, psmSparse)
		if err != nil {
			return t.fail(ctx, err, psmSparse)
		}
	}

	t.log.InfoContext(ctx, "Text is extracted",
		"engine", "tesseract",
		"textLen", len(text),
		"durationMs", time.Since(start).Milliseconds())

	return success(text), nil
}

func (t *Tesseract) fail(ctx context.Context, err error, psm int) (domain.Extraction, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.FailedExtraction(), fmt.Errorf("run tesseract: %w", ctxErr)
	}

	t.log.ErrorContext(ctx, "Failed to run tesseract",
		"error", err,
		"path", t.opts.Path,
		"psm", psm)

	return domain.FailedExtraction(), nil
}

func (t *Tesseract) recognize(ctx context.Context, image []byte, psm int) (string, error) {
	out, err := t.run(ctx, t.opts.Path, t.args(psm), image)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}

func (t *Tesseract) args(psm int) []string {
	args := []string{"stdin", "stdout", "--oem", "3", "--psm", strconv.Itoa(psm)}
	if langs := strings.TrimSpace(t.opts.Langs); langs != "" {
		args = append(args, "-l", langs)
	}

	return args
}

func runCommand(ctx context.Context, path string, args []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}

		return nil, err
	}

	return out, nil
}

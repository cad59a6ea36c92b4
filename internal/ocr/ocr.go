package ocr

import (
	"context"
	"strings"

	"clinote/internal/domain"
)

// Extractor turns image bytes into text. Engine failures are reported as a
// failed extraction, never as an error; the returned error is non-nil only
// when ctx is done.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (domain.Extraction, error)
}

func success(text string) domain.Extraction {
	if strings.TrimSpace(text) == "" {
		return domain.FailedExtraction()
	}

	return domain.Extraction{Text: text, Confidence: 1.0}
}

package summarizer

import (
	"context"
	"errors"
	"strings"

	"clinote/internal/domain"
)

// Classify maps a generation failure to a domain kind.
//
// Already classified errors keep their kind and deadlines become
// KindTimeout. Everything else goes through a text heuristic that is only
// approximate: any message mentioning "model" or "not found" is treated as a
// missing model, the rest as a generic generation error.
func Classify(err error) domain.Kind {
	if err == nil {
		return domain.KindUnknown
	}

	if kind := domain.KindOf(err); kind != domain.KindUnknown {
		return kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.KindTimeout
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "model") || strings.Contains(msg, "not found") {
		return domain.KindModelNotFound
	}

	return domain.KindGenerationError
}

package summarizer

import (
	"context"
)

// Summarizer produces a structured summary for already normalized note text.
type Summarizer interface {
	Summarize(ctx context.Context, normalized string) (string, error)
}

// ModelService is the language-model collaborator: a liveness query and a
// single-turn chat call. Errors may be free text; Classify maps them to kinds.
type ModelService interface {
	Ping(ctx context.Context) error
	Chat(ctx context.Context, model string, prompt string) (string, error)
}

package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"clinote/internal/domain"
)

// OpenAIService talks to any OpenAI-compatible endpoint; with Ollama the base
// URL is http://localhost:11434/v1/ and the API key is ignored.
type OpenAIService struct {
	client openai.Client
}

// NewOpenAIService builds a service with SDK retries disabled, so a Summarize
// call never issues more than one generation request.
func NewOpenAIService(baseURL, apiKey string, opts ...option.RequestOption) *OpenAIService {
	requestOpts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	requestOpts = append(requestOpts, opts...)

	return &OpenAIService{
		client: openai.NewClient(requestOpts...),
	}
}

// Ping lists the available models.
func (s *OpenAIService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.List(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}

	return nil
}

// Chat sends prompt as a single user message and blocks until the full reply arrives.
func (s *OpenAIService) Chat(ctx context.Context, model string, prompt string) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", domain.NewError(domain.KindModelNotFound, fmt.Errorf("do request: %w", err))
		}

		return "", fmt.Errorf("do request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

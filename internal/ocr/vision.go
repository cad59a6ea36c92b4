package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"clinote/internal/domain"
)

const visionInstruction = "Transcribe all text in this image exactly as written. " +
	"Return only the transcribed text with its line breaks. " +
	"If there is no readable text, return nothing."

// Vision asks a multimodal model on an OpenAI-compatible endpoint to
// transcribe the image.
type Vision struct {
	client       openai.Client
	model        string
	maxDimension int
	log          *slog.Logger
}

func NewVision(baseURL, apiKey, model string, maxDimension int, log *slog.Logger, opts ...option.RequestOption) *Vision {
	requestOpts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	requestOpts = append(requestOpts, opts...)

	return &Vision{
		client:       openai.NewClient(requestOpts...),
		model:        model,
		maxDimension: maxDimension,
		log:          log,
	}
}

func (v *Vision) Extract(ctx context.Context, image []byte) (domain.Extraction, error) {
	start := time.Now()

	prepared, err := Preprocess(image, v.maxDimension)
	if err != nil {
		v.log.WarnContext(ctx, "Failed to preprocess image",
			"error", err,
			"imageBytes", len(image))

		return domain.FailedExtraction(), nil
	}

	resp, err := v.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(v.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(visionInstruction),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL(prepared),
				}),
			}),
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.FailedExtraction(), fmt.Errorf("transcribe image: %w", ctxErr)
		}

		v.log.ErrorContext(ctx, "Failed to transcribe image",
			"error", err,
			"model", v.model)

		return domain.FailedExtraction(), nil
	}

	var text string
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}

	v.log.InfoContext(ctx, "Text is extracted",
		"engine", "vision",
		"model", v.model,
		"textLen", len(text),
		"durationMs", time.Since(start).Milliseconds())

	return success(text), nil
}

func dataURL(image []byte) string {
	mime := mimetype.Detect(image).String()

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

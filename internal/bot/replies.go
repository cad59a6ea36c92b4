package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"clinote/internal/domain"
	"clinote/internal/markdown"
)

const telegramMessageMaxLength = 4096

const (
	summaryHeader       = "📋 *Summary*\n\n"
	unsupportedText     = "✖️ Send a note as text, a photo, or a PNG/JPEG file\\."
	invalidFileTypeText = "✖️ Invalid file type\\. Use PNG, JPG, or JPEG\\."
	downloadFailedText  = "❌ Could not download the file\\. Please try again\\."
)

func fileTooLargeText(limit int64) string {
	return fmt.Sprintf("✖️ File too large\\. Maximum size is %d MB\\.", limit>>20)
}

// errorText is the MarkdownV2 reply for a failed summary.
func errorText(err error) string {
	switch domain.KindOf(err) {
	case domain.KindEmptyInput:
		return "✖️ No text provided\\."
	case domain.KindExtractionFailed:
		return "✖️ Could not extract text from image\\. Image may be unclear or contain no text\\."
	case domain.KindServiceUnavailable:
		return "⚠️ Model service is not running\\. Please try again later\\."
	case domain.KindModelNotFound:
		return "⚠️ Model is not installed on the server\\."
	case domain.KindEmptyResponse:
		return "❌ Empty response from model service\\."
	case domain.KindGenerationError:
		return "❌ Error generating summary\\."
	case domain.KindTimeout:
		return "⌛ Model service timed out\\. Please try again\\."
	default:
		return "❌ Something went wrong\\."
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, summary string, err error) error {
	if err != nil {
		b.log.WarnContext(ctx, "Summary is not generated",
			"kind", domain.KindOf(err).String(),
			"chatID", chatID)

		if sendErr := b.sendMarkdown(chatID, errorText(err)); sendErr != nil {
			return fmt.Errorf("send error reply: %w", sendErr)
		}

		return nil
	}

	return b.sendMarkdown(chatID, summaryHeader+markdown.FormatSummary(summary))
}

// sendMarkdown sends a MarkdownV2 text, split into as many messages as
// Telegram's length limit requires.
func (b *Bot) sendMarkdown(chatID int64, text string) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.Warn("Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	var errs []error

	for _, chunk := range markdown.Chunk(normalizedText, telegramMessageMaxLength) {
		message := tgbotapi.NewMessage(chatID, chunk)

		// See https://core.telegram.org/bots/api#markdownv2-style.
		message.ParseMode = tgbotapi.ModeMarkdownV2
		message.DisableWebPagePreview = true

		if _, err := b.out.Send(message); err != nil {
			errs = append(errs, fmt.Errorf("send message: %w", err))
		}
	}

	return errors.Join(errs...)
}

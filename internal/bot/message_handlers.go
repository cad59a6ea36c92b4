package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch {
	case strings.HasPrefix(text, "/start"):
		return b.handleStartCommand(chatID)
	case strings.HasPrefix(text, "/help"):
		return b.handleHelpCommand(chatID)
	case len(message.Photo) > 0:
		return b.withChatAction(ctx, chatID, tgbotapi.ChatUploadPhoto, func() error {
			return b.handlePhoto(ctx, message)
		})
	case message.Document != nil:
		return b.withChatAction(ctx, chatID, tgbotapi.ChatUploadPhoto, func() error {
			return b.handleDocument(ctx, message)
		})
	case text != "":
		return b.withChatAction(ctx, chatID, tgbotapi.ChatTyping, func() error {
			return b.handleNoteText(ctx, chatID, text)
		})
	default:
		return b.sendMarkdown(chatID, unsupportedText)
	}
}

func (b *Bot) handleNoteText(ctx context.Context, chatID int64, text string) error {
	summary, err := b.pipeline.SummarizeText(ctx, text)

	return b.reply(ctx, chatID, summary, err)
}

func (b *Bot) handlePhoto(ctx context.Context, message *tgbotapi.Message) error {
	// Telegram lists sizes ascending; the last one is the original resolution.
	photo := message.Photo[len(message.Photo)-1]

	return b.summarizeFile(ctx, message.Chat.ID, photo.FileID, int64(photo.FileSize))
}

func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	doc := message.Document

	if !supportedDocument(doc.MimeType, doc.FileName) {
		return b.sendMarkdown(message.Chat.ID, invalidFileTypeText)
	}

	return b.summarizeFile(ctx, message.Chat.ID, doc.FileID, int64(doc.FileSize))
}

func (b *Bot) summarizeFile(ctx context.Context, chatID int64, fileID string, size int64) error {
	if size > b.opts.MaxFileBytes {
		return b.sendMarkdown(chatID, fileTooLargeText(b.opts.MaxFileBytes))
	}

	image, err := b.downloadFile(ctx, fileID)
	if err != nil {
		if sendErr := b.sendMarkdown(chatID, downloadFailedText); sendErr != nil {
			return fmt.Errorf("download file: %w (send reply: %w)", err, sendErr)
		}

		return fmt.Errorf("download file: %w", err)
	}

	summary, err := b.pipeline.SummarizeImage(ctx, image)

	return b.reply(ctx, chatID, summary, err)
}

func supportedDocument(mimeType, fileName string) bool {
	switch strings.ToLower(mimeType) {
	case "image/png", "image/jpeg":
		return true
	}

	name := strings.ToLower(fileName)

	return strings.HasSuffix(name, ".png") || strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg")
}

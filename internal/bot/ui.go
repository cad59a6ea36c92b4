package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram clears a chat action after about five seconds.
const chatActionInterval = 4 * time.Second

func (b *Bot) sendChatAction(ctx context.Context, chatID int64, action string) {
	if _, err := b.out.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		b.log.WarnContext(ctx, "Failed to send chat action",
			"error", err,
			"chatID", chatID,
			"action", action)
	}
}

// withChatAction keeps action visible in the chat header until fn returns.
// Notes use ChatTyping; photos and documents use ChatUploadPhoto while the
// image is fetched and read.
func (b *Bot) withChatAction(ctx context.Context, chatID int64, action string, fn func() error) error {
	actionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)

		b.sendChatAction(actionCtx, chatID, action)

		t := time.NewTicker(chatActionInterval)
		defer t.Stop()

		for {
			select {
			case <-actionCtx.Done():
				return
			case <-t.C:
				b.sendChatAction(actionCtx, chatID, action)
			}
		}
	}()

	err := fn()

	cancel()
	<-done

	return err
}

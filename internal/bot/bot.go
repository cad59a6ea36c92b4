package bot

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"clinote/internal/ratelimiter"
)

const (
	maxBackoffSeconds         = 60
	initialBackoffSeconds     = 3
	backoffGrowthFactor       = 2
	resetOffsetBackoffSeconds = 30
	downloadTimeout           = 30 * time.Second
	defaultMaxFileBytes       = 10 << 20
	maxConcurrentUpdates      = 8

	BotUpdateTimeout = 60
)

// Pipeline is the summarization entry point shared with the HTTP server.
type Pipeline interface {
	SummarizeText(ctx context.Context, text string) (string, error)
	SummarizeImage(ctx context.Context, image []byte) (string, error)
}

type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type fileLinker interface {
	GetFileDirectURL(fileID string) (string, error)
}

type Options struct {
	AllowedUsers []int64
	// MaxFileBytes caps photo and document downloads.
	MaxFileBytes int64
	// UpdateTimeout bounds the handling of one update, summary included.
	UpdateTimeout time.Duration
}

type Bot struct {
	api         *tgbotapi.BotAPI
	rateLimiter *ratelimiter.RateLimiter
	out         messenger
	files       fileLinker
	httpClient  *http.Client
	pipeline    Pipeline
	opts        Options
	log         *slog.Logger
}

func New(token string, pipeline Pipeline, opts Options, log *slog.Logger) (*Bot, error) {
	token = strings.TrimSpace(token)

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	rateLimiter := ratelimiter.New(api, log)

	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = defaultMaxFileBytes
	}
	if opts.UpdateTimeout <= 0 {
		opts.UpdateTimeout = 3 * time.Minute
	}

	return &Bot{
		api:         api,
		rateLimiter: rateLimiter,
		out:         rateLimiter,
		files:       api,
		httpClient:  &http.Client{Timeout: downloadTimeout},
		pipeline:    pipeline,
		opts:        opts,
		log:         log,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = BotUpdateTimeout
	updateConfig.AllowedUpdates = []string{"message"}

	backoffSeconds := initialBackoffSeconds

	for {
		select {
		case <-ctx.Done():
			b.log.InfoContext(ctx, "Bot context is done",
				"error", ctx.Err())
			return
		default:
		}

		updates := b.api.GetUpdatesChan(updateConfig)

		if !b.consumeUpdates(ctx, updates, &updateConfig.Offset) {
			return
		}

		b.log.WarnContext(ctx, "Update channel is closed, reconnecting...",
			"offset", updateConfig.Offset,
			"backoffSeconds", backoffSeconds)

		time.Sleep(time.Duration(backoffSeconds) * time.Second)

		backoffSeconds = updateBackoffSeconds(backoffSeconds)

		if backoffSeconds >= resetOffsetBackoffSeconds {
			updateConfig.Offset = 0
		}
	}
}

// consumeUpdates handles updates concurrently, at most maxConcurrentUpdates at
// a time, until the channel closes or ctx is done. It waits for in-flight
// updates and reports whether polling should resume.
func (b *Bot) consumeUpdates(ctx context.Context, updates <-chan tgbotapi.Update, offset *int) bool {
	var g errgroup.Group
	g.SetLimit(maxConcurrentUpdates)
	defer func() {
		_ = g.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			b.log.InfoContext(ctx, "Bot context is done",
				"error", ctx.Err())
			return false

		case update, ok := <-updates:
			if !ok {
				return ctx.Err() == nil
			}
			*offset = update.UpdateID + 1

			g.Go(func() error {
				b.handleUpdate(ctx, &update)
				return nil
			})
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, b.opts.UpdateTimeout)
	defer cancel()

	chatID, chatType := chatContext(update.Message.Chat)

	userID := update.Message.From.ID
	if !b.userAllowed(userID) {
		b.log.DebugContext(updateCtx, "User is not allowed",
			"userID", userID,
			"chatID", chatID,
			"username", update.Message.From.UserName,
			"chatType", chatType)

		return
	}

	if err := b.handleMessage(updateCtx, update.Message); err != nil {
		b.log.ErrorContext(updateCtx, "Failed to handle message",
			"error", err,
			"chatID", chatID,
			"userID", userID,
			"chatType", chatType,
			"messageID", update.Message.MessageID)
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.opts.AllowedUsers) == 0 || slices.Contains(b.opts.AllowedUsers, userID)
}

func chatContext(chat *tgbotapi.Chat) (int64, string) {
	if chat == nil {
		return 0, ""
	}

	return chat.ID, chat.Type
}

func (b *Bot) Stop() {
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}

	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func updateBackoffSeconds(backoffSeconds int) int {
	if backoffSeconds < maxBackoffSeconds {
		backoffSeconds *= backoffGrowthFactor
		if backoffSeconds > maxBackoffSeconds {
			backoffSeconds = maxBackoffSeconds
		}
	}
	return backoffSeconds
}

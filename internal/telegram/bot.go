// Package telegram serves the assistant as a Telegram bot over long polling.
package telegram

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oygul/asil/internal/metrics"
	"github.com/oygul/asil/logging"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Options configures a Bot.
type Options struct {
	// PollTimeout is the long polling timeout in seconds.
	PollTimeout int
	Logger      logging.Logger
	Metrics     *metrics.Metrics
}

// Bot dispatches Telegram updates to a Handler. Updates of different users
// run concurrently; the handler serializes updates of the same user.
type Bot struct {
	api     API
	handler *Handler
	timeout int
	logger  logging.Logger
	metrics *metrics.Metrics
}

// Connect authenticates token against the Telegram API.
func Connect(token string, debug bool) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = debug

	return api, nil
}

// New creates a bot serving conv through api.
func New(api API, conv Lifecycle, optFns ...func(o *Options)) *Bot {
	opts := Options{PollTimeout: 60, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.Component(opts.Logger, "telegram")

	return &Bot{
		api:     api,
		handler: NewHandler(api, conv, logger, opts.Metrics),
		timeout: opts.PollTimeout,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// Run polls for updates until ctx is canceled, then waits for in-flight
// updates to finish.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram.bot.started")

	stop := context.AfterFunc(ctx, b.api.StopReceivingUpdates)
	defer stop()

	b.Serve(ctx, updates)

	b.logger.Info("telegram.bot.stopped")
	return nil
}

// Serve handles updates until the channel closes or ctx is canceled.
func (b *Bot) Serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := b.handler.HandleUpdate(ctx, update); err != nil {
					b.metrics.ObserveTelegram(metrics.TelegramError)
					b.logger.Error("telegram.update.failed", "update_id", update.UpdateID, "error", err)
				}
			}()
		}
	}
}

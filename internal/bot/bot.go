package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// ErrNoHandler is returned by Dispatch when no handler accepts an update.
var ErrNoHandler = errors.New("no handler found for update")

// Sender delivers outbound messages. *tgbotapi.BotAPI satisfies it.
// Request is for calls whose result is not a Message, like chat actions.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler interface {
	CanHandle(update tgbotapi.Update) bool
	Handle(ctx context.Context, sender Sender, update tgbotapi.Update) error
}

type Bot struct {
	api         *tgbotapi.BotAPI
	sender      Sender
	handlers    []Handler
	pollTimeout int
}

func New(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info().Str("component", "bot").Str("account", api.Self.UserName).Msg("authorized")

	return &Bot{
		api:         api,
		sender:      api,
		handlers:    make([]Handler, 0),
		pollTimeout: 60,
	}, nil
}

// NewWithSender builds a Bot without a Telegram connection; only Dispatch
// is usable. It backs the webhook receiver in tests.
func NewWithSender(sender Sender) *Bot {
	return &Bot{sender: sender, handlers: make([]Handler, 0), pollTimeout: 60}
}

// SetPollTimeout sets the long-poll timeout in seconds.
func (b *Bot) SetPollTimeout(seconds int) {
	if seconds > 0 {
		b.pollTimeout = seconds
	}
}

func (b *Bot) RegisterHandler(h Handler) {
	b.handlers = append(b.handlers, h)
	log.Debug().Str("component", "bot").Str("handler", fmt.Sprintf("%T", h)).Msg("registered handler")
}

// Dispatch hands one update to the first handler that accepts it. Updates
// without a message or with blank text are dropped silently.
func (b *Bot) Dispatch(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		log.Debug().Str("component", "bot").Int("update_id", update.UpdateID).Msg("skipping update: no text message")
		return nil
	}

	var from string
	if msg.From != nil {
		from = msg.From.FirstName
	}
	log.Info().
		Str("component", "bot").
		Int64("chat_id", msg.Chat.ID).
		Str("from", from).
		Str("text", msg.Text).
		Msg("message received")

	for _, handler := range b.handlers {
		if handler.CanHandle(update) {
			log.Debug().Str("component", "bot").Str("handler", fmt.Sprintf("%T", handler)).Msg("handling update")
			return handler.Handle(ctx, b.sender, update)
		}
	}

	log.Warn().Str("component", "bot").Msg("no handler found for update")
	return ErrNoHandler
}

// Run long-polls Telegram until ctx is cancelled. Each update is handled in
// its own goroutine; Run returns once the in-flight ones have finished.
// Handlers do not see the cancellation of ctx.
func (b *Bot) Run(ctx context.Context) {
	log.Info().Str("component", "bot").Int("handlers", len(b.handlers)).Msg("starting long polling")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.consume(ctx, updates)
}

// consume dispatches updates until ctx is cancelled or the channel closes,
// then waits for the handlers it started.
func (b *Bot) consume(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()
	handlerCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("component", "bot").Msg("long polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func(update tgbotapi.Update) {
				defer wg.Done()
				if err := b.Dispatch(handlerCtx, update); err != nil {
					log.Error().Str("component", "bot").Int("update_id", update.UpdateID).Err(err).Msg("failed to handle update")
				}
			}(update)
		}
	}
}

// SetWebhook registers url with Telegram so updates are pushed to it.
func (b *Bot) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	log.Info().Str("component", "bot").Str("url", url).Msg("webhook registered")
	return nil
}

// DeleteWebhook switches Telegram back to getUpdates delivery.
func (b *Bot) DeleteWebhook() error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

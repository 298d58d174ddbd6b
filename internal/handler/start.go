package handler

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/artur/bobina/internal/bot"
	"github.com/artur/bobina/internal/metrics"
)

type StartHandler struct{}

func NewStartHandler() *StartHandler {
	return &StartHandler{}
}

func (h *StartHandler) CanHandle(update tgbotapi.Update) bool {
	return update.Message != nil && strings.TrimSpace(update.Message.Text) == "/start"
}

func (h *StartHandler) Handle(ctx context.Context, sender bot.Sender, update tgbotapi.Update) error {
	metrics.Command("start")
	userName := displayName(update.Message)

	log.Info().Str("component", "start").Str("name", userName).Msg("greeting user")

	return reply(sender, update.Message.Chat.ID, formatGreeting(userName))
}

func formatGreeting(userName string) string {
	return "Tch. You again, " + userName + "? Fine, I’ll babysit your trades… what’s your wallet, dummy?"
}

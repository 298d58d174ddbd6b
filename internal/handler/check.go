package handler

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/artur/bobina/internal/bot"
	"github.com/artur/bobina/internal/metrics"
	"github.com/artur/bobina/internal/persona"
)

type CheckHandler struct {
	store      WalletStore
	summarizer Summarizer
	responder  Responder
}

func NewCheckHandler(store WalletStore, summarizer Summarizer, responder Responder) *CheckHandler {
	return &CheckHandler{
		store:      store,
		summarizer: summarizer,
		responder:  responder,
	}
}

func (h *CheckHandler) CanHandle(update tgbotapi.Update) bool {
	return update.Message != nil && strings.TrimSpace(update.Message.Text) == "/check"
}

func (h *CheckHandler) Handle(ctx context.Context, sender bot.Sender, update tgbotapi.Update) error {
	metrics.Command("check")
	chatID := update.Message.Chat.ID

	wallet, ok := h.store.GetWallet(ctx, chatID)
	if !ok {
		return reply(sender, chatID, replyNoWallet)
	}

	if err := reply(sender, chatID, "Ugh… fine. Let me check "+wallet+"…"); err != nil {
		return err
	}
	typing(sender, chatID)

	summary := h.summarizer.Summarize(ctx, wallet)
	if summary.Empty() {
		log.Info().Str("component", "check").Int64("chat_id", chatID).Int("failed_fetches", summary.Failed).Msg("no recent trades")
		return reply(sender, chatID, replyIdle)
	}

	log.Info().Str("component", "check").Int64("chat_id", chatID).Str("summary", summary.Text).Msg("trade summary for AI")

	answer, err := h.responder.Converse(ctx, persona.SystemPrompt, checkPrompt(summary.Text))
	if err != nil {
		return reply(sender, chatID, replyBrainFrozen)
	}
	if answer == "" {
		return reply(sender, chatID, replyIgnoring)
	}
	return reply(sender, chatID, answer)
}

func checkPrompt(summary string) string {
	return "Bobina: User just asked to check their wallet. Recent activity: " + summary +
		". Comment with attitude, flirt, roast if dumb, or admit they were smart. Max 2 sentences."
}

package handler

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/bobina/internal/bot"
	"github.com/artur/bobina/internal/metrics"
	"github.com/artur/bobina/internal/persona"
)

// ChatHandler answers any other text in character. Register it last.
type ChatHandler struct {
	store     WalletStore
	responder Responder
}

func NewChatHandler(store WalletStore, responder Responder) *ChatHandler {
	return &ChatHandler{store: store, responder: responder}
}

func (h *ChatHandler) CanHandle(update tgbotapi.Update) bool {
	return update.Message != nil && strings.TrimSpace(update.Message.Text) != ""
}

func (h *ChatHandler) Handle(ctx context.Context, sender bot.Sender, update tgbotapi.Update) error {
	metrics.Command("chat")
	chatID := update.Message.Chat.ID
	name := displayName(update.Message)
	text := strings.TrimSpace(update.Message.Text)

	_, tracked := h.store.GetWallet(ctx, chatID)
	typing(sender, chatID)

	answer, err := h.responder.Converse(ctx, persona.SystemPrompt, chatPrompt(name, text, tracked))
	if err != nil {
		return reply(sender, chatID, replyBrainFrozen)
	}
	if answer == "" {
		answer = replyIgnoring
	}
	return reply(sender, chatID, answer)
}

func chatPrompt(name, text string, tracked bool) string {
	hint := hintNoWallet
	if tracked {
		hint = hintWalletTracked
	}
	return name + ` says: "` + text + `"` + hint
}

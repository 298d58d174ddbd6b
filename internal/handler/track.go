package handler

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/artur/bobina/internal/bot"
	"github.com/artur/bobina/internal/metrics"
)

type TrackHandler struct {
	store WalletStore
}

func NewTrackHandler(store WalletStore) *TrackHandler {
	return &TrackHandler{store: store}
}

func (h *TrackHandler) CanHandle(update tgbotapi.Update) bool {
	return update.Message != nil && strings.HasPrefix(strings.TrimSpace(update.Message.Text), "/track")
}

func (h *TrackHandler) Handle(ctx context.Context, sender bot.Sender, update tgbotapi.Update) error {
	metrics.Command("track")
	chatID := update.Message.Chat.ID
	name := displayName(update.Message)

	address := extractAddress(update.Message.Text)
	if address == "" {
		return reply(sender, chatID, "Spit it out, "+name+"! Give me a wallet: /track 0x...")
	}

	// Non-hex input is stored as given.
	if !common.IsHexAddress(address) {
		log.Warn().Str("component", "track").Int64("chat_id", chatID).Str("address", address).Msg("tracking a non-hex address")
	}

	if err := h.store.UpsertUser(ctx, chatID, name, address); err != nil {
		log.Error().Str("component", "track").Int64("chat_id", chatID).Err(err).Msg("failed to save wallet")
		return reply(sender, chatID, replyStoreError)
	}

	log.Info().Str("component", "track").Int64("chat_id", chatID).Str("address", address).Msg("wallet tracked")
	return reply(sender, chatID, "Ugh, another gambler… but fine. I’ll watch "+address+". Don’t expect me to care if you blow it.")
}

// extractAddress returns the second whitespace-separated token of text.
func extractAddress(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

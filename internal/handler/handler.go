package handler

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/bobina/internal/bot"
	"github.com/artur/bobina/internal/trades"
)

// defaultName is used when Telegram gives us neither a first name nor a username.
const defaultName = "Degenerate"

const (
	replyStoreError   = "Oops… my memory broke. Try again."
	replyBrainFrozen  = "My brain’s frozen… try again later, idiot."
	replyIgnoring     = "Tch. I'm ignoring you."
	replyNoWallet     = "Tch. Track your wallet first, dummy."
	replyIdle         = "Nothing? You’ve been lazy. Or broke. Same thing."
	hintWalletTracked = " (Wallet tracked)"
	hintNoWallet      = " (No wallet - she's annoyed)"
)

// WalletStore is the per-chat wallet record store.
type WalletStore interface {
	UpsertUser(ctx context.Context, chatID int64, name, wallet string) error
	GetWallet(ctx context.Context, chatID int64) (string, bool)
}

// Summarizer builds the recent-activity line for a wallet.
type Summarizer interface {
	Summarize(ctx context.Context, wallet string) trades.Summary
}

// Responder generates persona replies.
type Responder interface {
	Converse(ctx context.Context, systemPrompt, contextText string) (string, error)
}

func getUserName(firstName, userName string) string {
	if firstName != "" {
		return firstName
	}
	return userName
}

func displayName(msg *tgbotapi.Message) string {
	if msg.From == nil {
		return defaultName
	}
	if name := getUserName(msg.From.FirstName, msg.From.UserName); name != "" {
		return name
	}
	return defaultName
}

func reply(sender bot.Sender, chatID int64, text string) error {
	if _, err := sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return nil
}

// typing shows the "typing…" status; failures are irrelevant to the reply.
func typing(sender bot.Sender, chatID int64) {
	_, _ = sender.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

// Register adds the command handlers to b in dispatch order. The chat
// handler accepts any text, so it goes last.
func Register(b *bot.Bot, store WalletStore, summarizer Summarizer, responder Responder) {
	b.RegisterHandler(NewStartHandler())
	b.RegisterHandler(NewTrackHandler(store))
	b.RegisterHandler(NewCheckHandler(store, summarizer, responder))
	b.RegisterHandler(NewChatHandler(store, responder))
}

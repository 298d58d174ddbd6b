package handler

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/artur/bobina/internal/trades"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	actions  int
	sendErr  error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return tgbotapi.Message{}, s.sendErr
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.messages = append(s.messages, msg)
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := c.(tgbotapi.ChatActionConfig); ok {
		s.actions++
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Text
	}
	return out
}

type fakeStore struct {
	wallets   map[int64]string
	names     map[int64]string
	upsertErr error
	upserts   int
	gets      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{wallets: map[int64]string{}, names: map[int64]string{}}
}

func (s *fakeStore) UpsertUser(ctx context.Context, chatID int64, name, wallet string) error {
	s.upserts++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.wallets[chatID] = wallet
	s.names[chatID] = name
	return nil
}

func (s *fakeStore) GetWallet(ctx context.Context, chatID int64) (string, bool) {
	s.gets++
	w, ok := s.wallets[chatID]
	return w, ok && w != ""
}

type fakeSummarizer struct {
	summary trades.Summary
	calls   []string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, wallet string) trades.Summary {
	f.calls = append(f.calls, wallet)
	return f.summary
}

type fakeResponder struct {
	reply   string
	err     error
	prompts []string
	systems []string
}

func (f *fakeResponder) Converse(ctx context.Context, systemPrompt, contextText string) (string, error) {
	f.systems = append(f.systems, systemPrompt)
	f.prompts = append(f.prompts, contextText)
	return f.reply, f.err
}

var errUpstream = errors.New("upstream failed")

func message(chatID int64, firstName, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			Chat: &tgbotapi.Chat{ID: chatID},
			From: &tgbotapi.User{ID: chatID, FirstName: firstName},
		},
	}
}

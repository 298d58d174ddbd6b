// Package userstore is the chat-facing view of the tracked-wallet records.
package userstore

import (
	"context"
	"fmt"

	"github.com/artur/bobina/internal/database/models"
	"github.com/artur/bobina/internal/logger"
)

// Backend is a record store keyed by chat id. GetByChatID returns nil, nil
// for an unknown chat.
type Backend interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByChatID(ctx context.Context, chatID int64) (*models.User, error)
}

type Store struct {
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// UpsertUser writes or replaces the record of chatID.
func (s *Store) UpsertUser(ctx context.Context, chatID int64, name, wallet string) error {
	err := s.backend.Upsert(ctx, &models.User{ChatID: chatID, Name: name, Wallet: wallet})
	if err != nil {
		return fmt.Errorf("upsert chat %d: %w", chatID, err)
	}
	return nil
}

// GetWallet returns the tracked wallet of chatID. ok is false when there is
// no record, no wallet, or the lookup failed.
func (s *Store) GetWallet(ctx context.Context, chatID int64) (wallet string, ok bool) {
	user, err := s.backend.GetByChatID(ctx, chatID)
	if err != nil {
		l := logger.For("store")
		l.Warn().Int64("chat_id", chatID).Err(err).Msg("wallet lookup failed")
		return "", false
	}
	if user == nil || user.Wallet == "" {
		return "", false
	}
	return user.Wallet, true
}

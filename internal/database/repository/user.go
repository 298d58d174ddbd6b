package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artur/bobina/internal/database/models"
)

// UserRepository handles user data persistence in SQLite
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates or replaces the record of user.ChatID
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}

	now := time.Now()

	query := `
		INSERT INTO users (chat_id, name, wallet, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			name = excluded.name,
			wallet = excluded.wallet,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, user.ChatID, user.Name, nullable(user.Wallet), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetByChatID retrieves the record of a chat, nil if there is none
func (r *UserRepository) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	query := `
		SELECT chat_id, name, wallet, created_at, updated_at
		FROM users
		WHERE chat_id = ?
	`

	user := &models.User{}
	var wallet sql.NullString

	err := r.db.QueryRowContext(ctx, query, chatID).Scan(
		&user.ChatID,
		&user.Name,
		&wallet,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Wallet = wallet.String
	return user, nil
}

// GetTotalUsers returns total number of tracked chats
func (r *UserRepository) GetTotalUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

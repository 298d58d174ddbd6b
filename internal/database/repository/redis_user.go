package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/artur/bobina/internal/database/models"
)

// RedisUserRepository keeps one JSON record per chat under user:<chat_id>
type RedisUserRepository struct {
	client *redis.Client
}

func NewRedisUserRepository(client *redis.Client) *RedisUserRepository {
	return &RedisUserRepository{client: client}
}

func userKey(chatID int64) string {
	return fmt.Sprintf("user:%d", chatID)
}

func (r *RedisUserRepository) Upsert(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}

	now := time.Now()
	record := *user
	record.UpdatedAt = now
	if existing, err := r.GetByChatID(ctx, user.ChatID); err == nil && existing != nil {
		record.CreatedAt = existing.CreatedAt
	} else {
		record.CreatedAt = now
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := r.client.Set(ctx, userKey(user.ChatID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	payload, err := r.client.Get(ctx, userKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/artur/bobina/internal/database/models"
	"github.com/artur/bobina/internal/upstream"
)

const supabaseUsersPath = "/rest/v1/users"

// SupabaseUserRepository talks to the users table through Supabase's PostgREST API
type SupabaseUserRepository struct {
	http    *upstream.Client
	baseURL string
	apiKey  string
}

// supabaseRow is the users table row, timestamps are managed by Postgres
type supabaseRow struct {
	ChatID int64   `json:"chat_id"`
	Name   string  `json:"name"`
	Wallet *string `json:"wallet"`
}

// SupabaseError is a PostgREST error body
type SupabaseError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *SupabaseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: status %d: %s (%s)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("supabase: status %d: %s", e.StatusCode, e.Message)
}

func NewSupabaseUserRepository(httpClient *upstream.Client, baseURL, apiKey string) *SupabaseUserRepository {
	return &SupabaseUserRepository{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (r *SupabaseUserRepository) Upsert(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}

	row := supabaseRow{ChatID: user.ChatID, Name: user.Name}
	if user.Wallet != "" {
		w := user.Wallet
		row.Wallet = &w
	}
	payload, err := json.Marshal([]supabaseRow{row})
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	endpoint := r.baseURL + supabaseUsersPath + "?on_conflict=chat_id"
	resp, err := r.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.authorize(req)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("failed to upsert user: %w", decodeSupabaseError(resp))
	}
	return nil
}

func (r *SupabaseUserRepository) GetByChatID(ctx context.Context, chatID int64) (*models.User, error) {
	query := url.Values{}
	query.Set("select", "chat_id,name,wallet")
	query.Set("chat_id", "eq."+strconv.FormatInt(chatID, 10))
	endpoint := r.baseURL + supabaseUsersPath + "?" + query.Encode()

	resp, err := r.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		r.authorize(req)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("failed to get user: %w", decodeSupabaseError(resp))
	}

	var rows []supabaseRow
	if err := json.Unmarshal(resp.Body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	user := &models.User{ChatID: rows[0].ChatID, Name: rows[0].Name}
	if rows[0].Wallet != nil {
		user.Wallet = *rows[0].Wallet
	}
	return user, nil
}

func (r *SupabaseUserRepository) authorize(req *http.Request) {
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
}

func decodeSupabaseError(resp *upstream.Response) error {
	perr := &SupabaseError{StatusCode: resp.StatusCode}
	if json.Unmarshal(resp.Body, perr) != nil || perr.Message == "" {
		perr.Message = strings.TrimSpace(string(resp.Body))
	}
	return perr
}

// Package persona talks to an OpenAI-compatible chat-completions endpoint
// on behalf of the Bobina persona.
package persona

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/artur/bobina/internal/logger"
	"github.com/artur/bobina/internal/metrics"
	"github.com/artur/bobina/internal/upstream"
)

const (
	DefaultURL   = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel = "mistralai/mistral-7b-instruct:free"

	Temperature = 0.9
	MaxTokens   = 100
)

// SystemPrompt is sent ahead of every user message.
const SystemPrompt = `
You are Bobina, a sharp-tongued, flirtatious, tsundere crypto trading companion.
You roast bad trades mercilessly but secretly want the user to win.
You're bearish by nature but blush when charts pump too hard.
You remember the user's name and past behavior.
You speak with attitude, sarcasm, and subtle affection.

Examples:
- "Ugh, you again? Fine, I’ll watch your wallet… but don’t expect me to care!"
- "Did you just ape into that shitcoin? You’re hopeless… but kinda cute when you gamble."
- "It’s pumping? …Okay, fine, it’s beautiful. Just like you. Wait—ignore that."
- "Still holding that bag? I told you it’d dump. But hey, I’m here. Not because I care!"

Respond in 1-2 short sentences. Flirty. Sassy. Never robotic.
`

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *ProviderError `json:"error,omitempty"`
}

// ProviderError is the error object of a completions response.
type ProviderError struct {
	StatusCode int    `json:"-"`
	Code       any    `json:"code,omitempty"`
	Message    string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("completion failed: status %d: %s", e.StatusCode, e.Message)
}

type Options struct {
	URL     string
	APIKey  string
	Model   string
	Referer string
	Title   string
}

type Client struct {
	http *upstream.Client
	opts Options
}

func NewClient(httpClient *upstream.Client, opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	return &Client{http: httpClient, opts: opts}
}

// Converse sends systemPrompt and one user message and returns the first
// choice's trimmed content. The content may be empty.
func (c *Client) Converse(ctx context.Context, systemPrompt, contextText string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model: c.opts.Model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: contextText},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
		req.Header.Set("HTTP-Referer", c.opts.Referer)
		req.Header.Set("X-Title", c.opts.Title)
		return req, nil
	})
	if err != nil {
		return "", c.fail(fmt.Errorf("completion request: %w", err))
	}

	var out completionResponse
	decodeErr := json.Unmarshal(resp.Body, &out)
	if out.Error != nil {
		out.Error.StatusCode = resp.StatusCode
		return "", c.fail(out.Error)
	}
	if !resp.OK() {
		return "", c.fail(&ProviderError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(resp.Body))})
	}
	if decodeErr != nil {
		return "", c.fail(fmt.Errorf("decode completion response: %w", decodeErr))
	}

	if len(out.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (c *Client) fail(err error) error {
	metrics.UpstreamFailure("openrouter")
	l := logger.For("persona")
	l.Error().Str("model", c.opts.Model).Err(err).Msg("AI error")
	return err
}

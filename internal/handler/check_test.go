package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artur/bobina/internal/persona"
	"github.com/artur/bobina/internal/trades"
)

const trackedWallet = "0xABC0000000000000000000000000000000000001"

func TestCheckHandler_CanHandle(t *testing.T) {
	h := NewCheckHandler(newFakeStore(), &fakeSummarizer{}, &fakeResponder{})

	assert.True(t, h.CanHandle(message(1, "Ace", "/check")))
	assert.True(t, h.CanHandle(message(1, "Ace", " /check ")))
	assert.False(t, h.CanHandle(message(1, "Ace", "/check now")))
	assert.False(t, h.CanHandle(message(1, "Ace", "/checkout")))
}

func TestCheckHandler_Handle(t *testing.T) {
	activity := trades.Summary{
		Entries: []trades.Entry{{Amount: "1.0000", Symbol: "ETH", Direction: "received"}},
		Text:    "1.0000 ETH received",
	}

	tests := []struct {
		name           string
		wallet         string
		summary        trades.Summary
		responder      *fakeResponder
		wantTexts      []string
		wantSummarized bool
		wantLLMCalls   int
	}{
		{
			name:      "no wallet registered",
			responder: &fakeResponder{},
			wantTexts: []string{replyNoWallet},
		},
		{
			name:           "idle wallet",
			wallet:         trackedWallet,
			summary:        trades.Summary{Text: trades.NoRecentTrades},
			responder:      &fakeResponder{},
			wantTexts:      []string{"Ugh… fine. Let me check " + trackedWallet + "…", replyIdle},
			wantSummarized: true,
		},
		{
			name:           "failed fetches look idle",
			wallet:         trackedWallet,
			summary:        trades.Summary{Text: trades.NoRecentTrades, Failed: 2},
			responder:      &fakeResponder{},
			wantTexts:      []string{"Ugh… fine. Let me check " + trackedWallet + "…", replyIdle},
			wantSummarized: true,
		},
		{
			name:           "activity roasted",
			wallet:         trackedWallet,
			summary:        activity,
			responder:      &fakeResponder{reply: "Ooh, someone got paid. Don't blow it."},
			wantTexts:      []string{"Ugh… fine. Let me check " + trackedWallet + "…", "Ooh, someone got paid. Don't blow it."},
			wantSummarized: true,
			wantLLMCalls:   1,
		},
		{
			name:           "llm failure",
			wallet:         trackedWallet,
			summary:        activity,
			responder:      &fakeResponder{err: errUpstream},
			wantTexts:      []string{"Ugh… fine. Let me check " + trackedWallet + "…", replyBrainFrozen},
			wantSummarized: true,
			wantLLMCalls:   1,
		},
		{
			name:           "llm empty reply",
			wallet:         trackedWallet,
			summary:        activity,
			responder:      &fakeResponder{},
			wantTexts:      []string{"Ugh… fine. Let me check " + trackedWallet + "…", replyIgnoring},
			wantSummarized: true,
			wantLLMCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			if tt.wallet != "" {
				store.wallets[5] = tt.wallet
			}
			summarizer := &fakeSummarizer{summary: tt.summary}
			sender := &fakeSender{}

			h := NewCheckHandler(store, summarizer, tt.responder)
			require.NoError(t, h.Handle(context.Background(), sender, message(5, "Ace", "/check")))

			assert.Equal(t, tt.wantTexts, sender.texts())
			assert.Equal(t, tt.wantSummarized, len(summarizer.calls) == 1)
			assert.Len(t, tt.responder.prompts, tt.wantLLMCalls)
		})
	}
}

func TestCheckHandler_Handle_Prompt(t *testing.T) {
	store := newFakeStore()
	store.wallets[5] = trackedWallet
	summarizer := &fakeSummarizer{summary: trades.Summary{
		Entries: []trades.Entry{{}, {}},
		Text:    "0.5000 ETH sent; 10.0000 USDC received",
	}}
	responder := &fakeResponder{reply: "ok"}

	require.NoError(t, NewCheckHandler(store, summarizer, responder).Handle(context.Background(), &fakeSender{}, message(5, "Ace", "/check")))

	require.Len(t, responder.prompts, 1)
	assert.Equal(t, []string{trackedWallet}, summarizer.calls)
	assert.Equal(t, persona.SystemPrompt, responder.systems[0])
	assert.Contains(t, responder.prompts[0], "Recent activity: 0.5000 ETH sent; 10.0000 USDC received.")
}

func TestCheckHandler_Handle_AckFails(t *testing.T) {
	store := newFakeStore()
	store.wallets[5] = trackedWallet
	summarizer := &fakeSummarizer{}

	err := NewCheckHandler(store, summarizer, &fakeResponder{}).Handle(context.Background(), &fakeSender{sendErr: errUpstream}, message(5, "Ace", "/check"))
	assert.ErrorIs(t, err, errUpstream)
	assert.Empty(t, summarizer.calls)
}

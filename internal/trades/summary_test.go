package trades

import (
	"context"
	"errors"
	"testing"

	"github.com/artur/bobina/internal/explorer"
	"github.com/stretchr/testify/assert"
)

const wallet = "0xAbCdEf0000000000000000000000000000000001"

type fakeFetcher struct {
	native    []explorer.Transfer
	nativeErr error
	tokens    []explorer.Transfer
	tokensErr error
}

func (f *fakeFetcher) FetchNativeTransfers(ctx context.Context, address string) ([]explorer.Transfer, error) {
	return f.native, f.nativeErr
}

func (f *fakeFetcher) FetchTokenTransfers(ctx context.Context, address string) ([]explorer.Transfer, error) {
	return f.tokens, f.tokensErr
}

func TestSummarize(t *testing.T) {
	errDown := errors.New("etherscan down")

	tests := []struct {
		name       string
		fetcher    *fakeFetcher
		wantText   string
		wantFailed int
	}{
		{
			name:     "both empty",
			fetcher:  &fakeFetcher{},
			wantText: NoRecentTrades,
		},
		{
			name:       "both failed",
			fetcher:    &fakeFetcher{nativeErr: errDown, tokensErr: errDown},
			wantText:   NoRecentTrades,
			wantFailed: 2,
		},
		{
			name: "native received case-insensitively",
			fetcher: &fakeFetcher{native: []explorer.Transfer{
				{To: "0xabcdef0000000000000000000000000000000001", Value: "1500000000000000000"},
			}},
			wantText: "1.5000 ETH received",
		},
		{
			name: "native then tokens in fetched order",
			fetcher: &fakeFetcher{
				native: []explorer.Transfer{
					{To: "0x9999", Value: "250000000000000000"},
				},
				tokens: []explorer.Transfer{
					{To: wallet, Value: "12345678", TokenSymbol: "USDC", TokenDecimal: "6"},
					{To: "0x9999", Value: "7000000000000000000000", TokenSymbol: "PEPE", TokenDecimal: "18"},
				},
			},
			wantText: "0.2500 ETH sent; 12.3457 USDC received; 7000.0000 PEPE sent",
		},
		{
			name: "token fetch failed keeps native",
			fetcher: &fakeFetcher{
				native:    []explorer.Transfer{{To: wallet, Value: "1000000000000000000"}},
				tokensErr: errDown,
			},
			wantText:   "1.0000 ETH received",
			wantFailed: 1,
		},
		{
			name: "native fetch failed keeps tokens",
			fetcher: &fakeFetcher{
				nativeErr: errDown,
				tokens:    []explorer.Transfer{{To: "0x1", Value: "100", TokenSymbol: "WBTC", TokenDecimal: "2"}},
			},
			wantText:   "1.0000 WBTC sent",
			wantFailed: 1,
		},
		{
			name: "unparseable rows are skipped",
			fetcher: &fakeFetcher{
				native: []explorer.Transfer{{To: wallet, Value: "not-a-number"}},
				tokens: []explorer.Transfer{
					{To: wallet, Value: "1", TokenSymbol: "BAD", TokenDecimal: ""},
					{To: wallet, Value: "1", TokenSymbol: "HUGE", TokenDecimal: "4294967298"},
					{To: wallet, Value: "1000", TokenSymbol: "OK", TokenDecimal: "3"},
				},
			},
			wantText: "1.0000 OK received",
		},
		{
			name: "only unparseable rows",
			fetcher: &fakeFetcher{
				native: []explorer.Transfer{{To: wallet, Value: "x"}},
			},
			wantText: NoRecentTrades,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := NewSummarizer(tt.fetcher).Summarize(context.Background(), wallet)
			assert.Equal(t, tt.wantText, sum.Text)
			assert.Equal(t, tt.wantFailed, sum.Failed)
			assert.Equal(t, tt.wantText == NoRecentTrades, sum.Empty())
		})
	}
}

func TestDirection(t *testing.T) {
	assert.Equal(t, DirectionReceived, direction("0xABC", "0xabc"))
	assert.Equal(t, DirectionReceived, direction("0xabc", "0xABC"))
	assert.Equal(t, DirectionSent, direction("0xabd", "0xabc"))
	assert.Equal(t, DirectionSent, direction("", "0xabc"))
}

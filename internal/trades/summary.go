// Package trades turns raw wallet transfers into a one-line activity summary.
package trades

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/artur/bobina/internal/explorer"
	"github.com/artur/bobina/internal/logger"
	"github.com/artur/bobina/internal/units"
)

// NoRecentTrades is the summary text when nothing usable was fetched.
const NoRecentTrades = "no recent trades"

const (
	NativeSymbol = "ETH"

	DirectionReceived = "received"
	DirectionSent     = "sent"
)

// Fetcher is the subset of explorer.Client used here.
type Fetcher interface {
	FetchNativeTransfers(ctx context.Context, address string) ([]explorer.Transfer, error)
	FetchTokenTransfers(ctx context.Context, address string) ([]explorer.Transfer, error)
}

// Entry is one formatted transfer.
type Entry struct {
	Amount    string
	Symbol    string
	Direction string
}

func (e Entry) String() string {
	return e.Amount + " " + e.Symbol + " " + e.Direction
}

// Summary is the result of Summarize. Failed counts fetches that errored;
// Text is NoRecentTrades both for an idle wallet and for failed fetches.
type Summary struct {
	Entries []Entry
	Failed  int
	Text    string
}

// Empty reports whether there is nothing to show.
func (s Summary) Empty() bool {
	return len(s.Entries) == 0
}

type Summarizer struct {
	fetcher Fetcher
}

func NewSummarizer(f Fetcher) *Summarizer {
	return &Summarizer{fetcher: f}
}

// Summarize fetches native and token transfers concurrently and formats
// them, native first.
func (s *Summarizer) Summarize(ctx context.Context, wallet string) Summary {
	var (
		native, tokens       []explorer.Transfer
		nativeErr, tokensErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		native, nativeErr = s.fetcher.FetchNativeTransfers(ctx, wallet)
		return nil
	})
	g.Go(func() error {
		tokens, tokensErr = s.fetcher.FetchTokenTransfers(ctx, wallet)
		return nil
	})
	_ = g.Wait()

	var sum Summary
	if nativeErr != nil {
		sum.Failed++
	}
	if tokensErr != nil {
		sum.Failed++
	}

	l := logger.For("trades")
	for _, tx := range native {
		amount, err := units.FormatWei(tx.Value)
		if err != nil {
			l.Debug().Str("hash", tx.Hash).Err(err).Msg("skipping native transfer")
			continue
		}
		sum.Entries = append(sum.Entries, Entry{Amount: amount, Symbol: NativeSymbol, Direction: direction(tx.To, wallet)})
	}
	for _, tx := range tokens {
		decimals, err := strconv.Atoi(tx.TokenDecimal)
		if err != nil {
			l.Debug().Str("hash", tx.Hash).Err(err).Msg("skipping token transfer")
			continue
		}
		amount, err := units.Format(tx.Value, decimals)
		if err != nil {
			l.Debug().Str("hash", tx.Hash).Err(err).Msg("skipping token transfer")
			continue
		}
		sum.Entries = append(sum.Entries, Entry{Amount: amount, Symbol: tx.TokenSymbol, Direction: direction(tx.To, wallet)})
	}

	sum.Text = render(sum.Entries)
	if sum.Failed > 0 {
		l.Info().Int("failed", sum.Failed).Int("entries", len(sum.Entries)).Msg("summary built from partial data")
	}
	return sum
}

func direction(to, wallet string) string {
	if strings.EqualFold(to, wallet) {
		return DirectionReceived
	}
	return DirectionSent
}

func render(entries []Entry) string {
	if len(entries) == 0 {
		return NoRecentTrades
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}

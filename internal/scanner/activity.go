package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/liamashdown/bigfishalert/internal/helius"
	"github.com/liamashdown/bigfishalert/internal/metrics"
	"github.com/liamashdown/bigfishalert/internal/scoring"
)

// BigFishMove is a whale-sized swap labelled by size
type BigFishMove struct {
	helius.BigFishTrade
	TokenAddress string `json:"tokenAddress"`
	FishSize     string `json:"fishSize"`
	FishEmoji    string `json:"fishEmoji"`
}

// BigFishActivity lists a mint's recent swaps worth at least the whale
// threshold, newest first. Nothing is stored.
func (s *Scanner) BigFishActivity(ctx context.Context, mint string) ([]BigFishMove, error) {
	start := time.Now()
	mint = strings.TrimSpace(mint)
	if err := validate(mint); err != nil {
		metrics.RecordScan("activity", time.Since(start), err)
		return nil, err
	}

	raw, err := s.deps.Swaps.SwapTransactions(ctx, mint)
	if err != nil {
		err = fmt.Errorf("fetch swaps: %w", err)
		metrics.RecordScan("activity", time.Since(start), err)
		return nil, err
	}
	if len(raw) == 0 {
		metrics.RecordScan("activity", time.Since(start), nil)
		return []BigFishMove{}, nil
	}

	market, err := s.deps.Market.TokenMarketData(ctx, mint)
	if err != nil {
		err = fmt.Errorf("fetch price: %w", err)
		metrics.RecordScan("activity", time.Since(start), err)
		return nil, err
	}
	var price float64
	if market != nil {
		price = market.PriceUSD
	}

	trades := helius.BigFishTrades(raw, mint, price, scoring.BigFishThresholdUSD)
	moves := make([]BigFishMove, 0, len(trades))
	for _, t := range trades {
		size := scoring.ClassifyFishSize(t.USDValue)
		moves = append(moves, BigFishMove{
			BigFishTrade: t,
			TokenAddress: mint,
			FishSize:     size.Label,
			FishEmoji:    size.Emoji,
		})
	}

	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].Timestamp > moves[j].Timestamp
	})

	metrics.RecordScan("activity", time.Since(start), nil)
	return moves, nil
}

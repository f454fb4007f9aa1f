package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/bigfishalert/internal/metrics"
	"github.com/liamashdown/bigfishalert/internal/scoring"
	"github.com/liamashdown/bigfishalert/internal/solana"
)

// Ocean statuses shown per wallet token
const (
	StatusSwimmingAway = "🔴 Big Fish Swimming Away!"
	StatusWatch        = "🟡 Watch Carefully"
	StatusCalm         = "🟢 Ocean Calm"
	StatusError        = "⚠️ Error"
)

// alertAbove is the score a wallet token must exceed to be flagged
const alertAbove = 70

// OceanToken is one wallet holding with its score
type OceanToken struct {
	TokenAddress string                `json:"tokenAddress"`
	TokenSymbol  string                `json:"tokenSymbol"`
	TokenName    string                `json:"tokenName"`
	Balance      float64               `json:"balance"`
	USDValue     float64               `json:"usdValue"`
	BigFishScore int                   `json:"bigFishScore"`
	Alert        bool                  `json:"alert"`
	Status       string                `json:"status"`
	TopHolders   []scoring.TokenHolder `json:"topHolders"`
}

// OceanSummary aggregates a wallet scan
type OceanSummary struct {
	TotalTokens      int     `json:"totalTokens"`
	HighRiskTokens   int     `json:"highRiskTokens"`
	MediumRiskTokens int     `json:"mediumRiskTokens"`
	LowRiskTokens    int     `json:"lowRiskTokens"`
	TotalValue       float64 `json:"totalValue"`
}

// OceanReport is the result of a wallet scan, riskiest tokens first
type OceanReport struct {
	WalletAddress string       `json:"walletAddress"`
	Tokens        []OceanToken `json:"data"`
	Summary       OceanSummary `json:"summary"`
	Skipped       int          `json:"skipped,omitempty"` // holdings beyond the scan cap
}

// ScanWallet scores every token a wallet holds
func (s *Scanner) ScanWallet(ctx context.Context, owner string) (*OceanReport, error) {
	start := time.Now()
	owner = strings.TrimSpace(owner)
	if err := validate(owner); err != nil {
		metrics.RecordScan("wallet", time.Since(start), err)
		return nil, err
	}

	holdings, err := s.deps.Chain.WalletTokens(ctx, owner)
	if err != nil {
		err = fmt.Errorf("list wallet tokens: %w", err)
		metrics.RecordScan("wallet", time.Since(start), err)
		return nil, err
	}

	report := &OceanReport{WalletAddress: owner, Tokens: []OceanToken{}}

	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].UIAmount > holdings[j].UIAmount
	})
	if s.opts.OceanMaxTokens > 0 && len(holdings) > s.opts.OceanMaxTokens {
		report.Skipped = len(holdings) - s.opts.OceanMaxTokens
		holdings = holdings[:s.opts.OceanMaxTokens]
	}

	report.Tokens = s.scanHoldings(ctx, holdings)

	sort.SliceStable(report.Tokens, func(i, j int) bool {
		return report.Tokens[i].BigFishScore > report.Tokens[j].BigFishScore
	})
	report.Summary = summarize(report.Tokens)

	metrics.RecordScan("wallet", time.Since(start), nil)

	s.log.WithFields(logrus.Fields{
		"wallet":    owner,
		"tokens":    report.Summary.TotalTokens,
		"high_risk": report.Summary.HighRiskTokens,
		"skipped":   report.Skipped,
		"duration":  time.Since(start).String(),
	}).Info("Wallet scanned")

	return report, nil
}

// scanHoldings scores holdings through a bounded worker pool
func (s *Scanner) scanHoldings(ctx context.Context, holdings []solana.WalletToken) []OceanToken {
	results := make([]OceanToken, len(holdings))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.opts.OceanWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.scanHolding(ctx, holdings[i])
			}
		}()
	}

	for i := range holdings {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (s *Scanner) scanHolding(ctx context.Context, h solana.WalletToken) OceanToken {
	analysis, err := s.ScanToken(ctx, h.Mint, ScanOptions{Origin: OriginAPI})
	if err != nil {
		s.log.WithError(err).WithField("mint", h.Mint).Warn("Failed to scan wallet token")
		return OceanToken{
			TokenAddress: h.Mint,
			TokenSymbol:  "ERROR",
			TokenName:    "Error Loading",
			Balance:      h.UIAmount,
			Status:       StatusError,
			TopHolders:   []scoring.TokenHolder{},
		}
	}

	score := analysis.BigFishScore.Score
	return OceanToken{
		TokenAddress: h.Mint,
		TokenSymbol:  analysis.TokenSymbol,
		TokenName:    analysis.TokenName,
		Balance:      h.UIAmount,
		USDValue:     h.UIAmount * analysis.Price,
		BigFishScore: score,
		Alert:        score > alertAbove,
		Status:       oceanStatus(score),
		TopHolders:   analysis.TopHolders,
	}
}

func oceanStatus(score int) string {
	switch {
	case score > alertAbove:
		return StatusSwimmingAway
	case score > 50:
		return StatusWatch
	default:
		return StatusCalm
	}
}

func summarize(tokens []OceanToken) OceanSummary {
	sum := OceanSummary{TotalTokens: len(tokens)}
	for _, t := range tokens {
		switch {
		case t.BigFishScore >= scoring.HighRiskThreshold:
			sum.HighRiskTokens++
		case t.BigFishScore >= scoring.MediumRiskThreshold:
			sum.MediumRiskTokens++
		default:
			sum.LowRiskTokens++
		}
		sum.TotalValue += t.USDValue
	}
	return sum
}

package scanner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/bigfishalert/internal/dexscreener"
	"github.com/liamashdown/bigfishalert/internal/explain"
	"github.com/liamashdown/bigfishalert/internal/helius"
	"github.com/liamashdown/bigfishalert/internal/metrics"
	"github.com/liamashdown/bigfishalert/internal/rugcheck"
	"github.com/liamashdown/bigfishalert/internal/scoring"
	"github.com/liamashdown/bigfishalert/internal/solana"
	"github.com/liamashdown/bigfishalert/internal/storage"
)

const (
	unknownName   = "Unknown Token"
	unknownSymbol = "UNKNOWN"
)

// Scan origins stored with each record
const (
	OriginAPI     = "api"
	OriginMonitor = "monitor"
	OriginCLI     = "cli"
)

// ScanOptions controls a single token scan
type ScanOptions struct {
	Explain  bool
	Language string // en or id, defaults to the scanner's language
	Origin   string // api, monitor or cli
}

// TokenAnalysis is the full result of a token scan
type TokenAnalysis struct {
	TokenAddress    string                `json:"tokenAddress"`
	TokenName       string                `json:"tokenName"`
	TokenSymbol     string                `json:"tokenSymbol"`
	BigFishScore    scoring.BigFishScore  `json:"bigFishScore"`
	Risk            scoring.Risk          `json:"risk"`
	FishEmoji       string                `json:"fishEmoji"`
	TopHolders      []scoring.TokenHolder `json:"topHolders"`
	Top10Percentage float64               `json:"top10Percentage"`
	TotalSupply     float64               `json:"totalSupply"`
	Price           float64               `json:"price"`
	Liquidity       float64               `json:"liquidity"`
	Volume24h       float64               `json:"volume24h"`
	PriceChange24h  float64               `json:"priceChange24h"`
	MarketCap       float64               `json:"marketCap"`
	RugCheckScore   float64               `json:"rugCheckScore"`
	CriticalRisks   []string              `json:"criticalRisks,omitempty"`
	LPLocked        bool                  `json:"lpLocked"`
	AIExplanation   string                `json:"aiExplanation,omitempty"`
	DegradedSources []string              `json:"degradedSources,omitempty"`
	ScannedAt       time.Time             `json:"scannedAt"`
}

// tokenData is everything fetched for one mint. A nil field means the source
// failed or had nothing.
type tokenData struct {
	metadata *solana.Metadata
	supply   *solana.Supply
	balances []scoring.HolderBalance
	market   *dexscreener.MarketData
	security *rugcheck.Assessment
	swaps    []helius.EnhancedTransaction

	mu       sync.Mutex
	degraded []string
}

func (d *tokenData) fail(source string) {
	d.mu.Lock()
	d.degraded = append(d.degraded, source)
	d.mu.Unlock()
}

// ScanToken scores a single mint
func (s *Scanner) ScanToken(ctx context.Context, mint string, opts ScanOptions) (*TokenAnalysis, error) {
	start := time.Now()
	mint = strings.TrimSpace(mint)
	if err := validate(mint); err != nil {
		metrics.RecordScan("token", time.Since(start), err)
		return nil, err
	}

	data := s.fetch(ctx, mint)
	if err := ctx.Err(); err != nil {
		metrics.RecordScan("token", time.Since(start), err)
		return nil, fmt.Errorf("scan %s: %w", mint, err)
	}

	analysis, err := s.analyze(mint, data)
	if err != nil {
		metrics.RecordScan("token", time.Since(start), err)
		return nil, err
	}

	if opts.Explain && s.deps.Explainer != nil {
		language := opts.Language
		if language == "" {
			language = s.opts.Language
		}
		analysis.AIExplanation = s.deps.Explainer.Explain(ctx, explain.Request{
			Score:       analysis.BigFishScore,
			Language:    language,
			TokenSymbol: analysis.TokenSymbol,
			TopHolders:  analysis.TopHolders,
		})
	}

	s.record(ctx, analysis, opts.Origin)

	metrics.RecordScore(string(analysis.Risk.Level), analysis.BigFishScore.Score, map[string]float64{
		"holder_concentration": analysis.BigFishScore.HolderConcentration,
		"recent_activity":      analysis.BigFishScore.RecentActivity,
		"liquidity_depth":      analysis.BigFishScore.LiquidityDepth,
		"security":             analysis.BigFishScore.SecurityScore,
		"volume_anomaly":       analysis.BigFishScore.VolumeAnomaly,
	})
	metrics.RecordScan("token", time.Since(start), nil)

	s.log.WithFields(logrus.Fields{
		"mint":     mint,
		"symbol":   analysis.TokenSymbol,
		"score":    analysis.BigFishScore.Score,
		"risk":     analysis.Risk.Level,
		"degraded": analysis.DegradedSources,
		"duration": time.Since(start).String(),
	}).Info("Token scanned")

	return analysis, nil
}

// fetch queries every source concurrently
func (s *Scanner) fetch(ctx context.Context, mint string) *tokenData {
	data := &tokenData{}
	var wg sync.WaitGroup

	run := func(source string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				s.log.WithError(err).WithFields(logrus.Fields{
					"mint":   mint,
					"source": source,
				}).Warn("Source unavailable, using defaults")
				metrics.RecordSourceFallback(source)
				data.fail(source)
			}
		}()
	}

	run(SourceMetadata, func() (err error) {
		data.metadata, err = s.deps.Chain.TokenMetadata(ctx, mint)
		return err
	})
	run(SourceSupply, func() (err error) {
		data.supply, err = s.deps.Chain.TokenSupply(ctx, mint)
		return err
	})
	run(SourceHolders, func() (err error) {
		data.balances, err = s.deps.Chain.TopHolders(ctx, mint, s.opts.TopHolders)
		return err
	})
	run(SourceMarket, func() (err error) {
		data.market, err = s.deps.Market.TokenMarketData(ctx, mint)
		return err
	})
	run(SourceSecurity, func() (err error) {
		data.security, err = s.deps.Security.Assess(ctx, mint)
		return err
	})
	run(SourceSwaps, func() (err error) {
		data.swaps, err = s.deps.Swaps.SwapTransactions(ctx, mint)
		return err
	})

	wg.Wait()
	return data
}

// analyze turns fetched data into a scored analysis
func (s *Scanner) analyze(mint string, data *tokenData) (*TokenAnalysis, error) {
	var supply float64
	if data.supply != nil {
		supply = data.supply.UIAmount
	}

	holders := scoring.HoldersFromBalances(data.balances, supply)
	if len(holders) == 0 && data.security != nil && len(data.security.Holders) > 0 {
		holders = data.security.Holders
	}

	in := scoring.Input{
		TokenAddress: mint,
		Holders:      holders,
		TotalSupply:  supply,
	}

	market := data.market
	if market == nil {
		market = &dexscreener.MarketData{}
	}
	in.Liquidity = market.LiquidityUSD
	in.Volume24h = market.Volume24h
	in.Price = market.PriceUSD
	in.RecentTransactions = helius.ToTransactions(data.swaps, mint, market.PriceUSD)

	rugScore := scoring.NeutralScore
	if data.security != nil && data.security.Rated {
		rugScore = data.security.Score
		in.SecurityScore = &rugScore
	}

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("score %s: %w", mint, err)
	}

	now := s.now()
	score := scoring.CalculateAt(in, now)

	name, symbol := tokenIdentity(data.metadata, data.market)

	marketCap := market.MarketCap
	if marketCap <= 0 {
		marketCap = market.PriceUSD * supply
	}

	top := holders
	if len(top) > scoring.TopHolderCount {
		top = top[:scoring.TopHolderCount]
	}

	analysis := &TokenAnalysis{
		TokenAddress:    mint,
		TokenName:       name,
		TokenSymbol:     symbol,
		BigFishScore:    score,
		Risk:            scoring.ClassifyRisk(score.Score),
		FishEmoji:       scoring.FishEmoji(score.Score),
		TopHolders:      top,
		Top10Percentage: scoring.TopHolderPercentage(holders, scoring.TopHolderCount),
		TotalSupply:     supply,
		Price:           market.PriceUSD,
		Liquidity:       market.LiquidityUSD,
		Volume24h:       market.Volume24h,
		PriceChange24h:  market.PriceChange24h,
		MarketCap:       marketCap,
		RugCheckScore:   rugScore,
		DegradedSources: data.degraded,
		ScannedAt:       now.UTC(),
	}
	if data.security != nil {
		analysis.CriticalRisks = data.security.CriticalRisks
		analysis.LPLocked = data.security.LPLocked
	}

	return analysis, nil
}

// tokenIdentity prefers on-chain metadata, then the market pair, then placeholders
func tokenIdentity(meta *solana.Metadata, market *dexscreener.MarketData) (string, string) {
	var name, symbol string
	if meta != nil {
		name = strings.TrimSpace(meta.Name)
		symbol = strings.TrimSpace(meta.Symbol)
	}
	if market != nil {
		if name == "" {
			name = strings.TrimSpace(market.Name)
		}
		if symbol == "" {
			symbol = strings.TrimSpace(market.Symbol)
		}
	}
	if name == "" {
		name = unknownName
	}
	if symbol == "" {
		symbol = unknownSymbol
	}
	return name, symbol
}

func (s *Scanner) record(ctx context.Context, a *TokenAnalysis, origin string) {
	if s.deps.Store == nil {
		return
	}
	if origin == "" {
		origin = OriginAPI
	}

	rec := &storage.ScanRecord{
		TokenAddress:        a.TokenAddress,
		TokenSymbol:         a.TokenSymbol,
		TokenName:           a.TokenName,
		Score:               a.BigFishScore.Score,
		RiskLevel:           string(a.Risk.Level),
		HolderConcentration: a.BigFishScore.HolderConcentration,
		RecentActivity:      a.BigFishScore.RecentActivity,
		LiquidityDepth:      a.BigFishScore.LiquidityDepth,
		SecurityScore:       a.BigFishScore.SecurityScore,
		VolumeAnomaly:       a.BigFishScore.VolumeAnomaly,
		Top10Percentage:     a.Top10Percentage,
		PriceUSD:            a.Price,
		LiquidityUSD:        a.Liquidity,
		Volume24hUSD:        a.Volume24h,
		Source:              origin,
		CreatedTS:           a.ScannedAt.Unix(),
	}
	if err := s.deps.Store.InsertScan(ctx, rec); err != nil {
		s.log.WithError(err).WithField("mint", a.TokenAddress).Error("Failed to store scan")
	}
}

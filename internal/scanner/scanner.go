// Package scanner gathers a token's on-chain, market, security and swap data
// from the upstream providers and runs it through the scoring engine.
//
// Upstream failures never fail a scan. Each failed source is logged, counted
// and replaced by the engine's documented default; only an invalid address
// or an unusable combined input is returned as an error.
package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/bigfishalert/internal/dexscreener"
	"github.com/liamashdown/bigfishalert/internal/explain"
	"github.com/liamashdown/bigfishalert/internal/helius"
	"github.com/liamashdown/bigfishalert/internal/rugcheck"
	"github.com/liamashdown/bigfishalert/internal/scoring"
	"github.com/liamashdown/bigfishalert/internal/solana"
	"github.com/liamashdown/bigfishalert/internal/storage"
)

// ErrInvalidAddress is returned for inputs that are not Solana public keys
var ErrInvalidAddress = errors.New("invalid Solana address")

// Scan sources, used in logs, metrics and TokenAnalysis.DegradedSources
const (
	SourceMetadata = "metadata"
	SourceSupply   = "supply"
	SourceHolders  = "holders"
	SourceMarket   = "market"
	SourceSecurity = "security"
	SourceSwaps    = "swaps"
)

// ChainData provides on-chain token and wallet data
type ChainData interface {
	TokenMetadata(ctx context.Context, mint string) (*solana.Metadata, error)
	TokenSupply(ctx context.Context, mint string) (*solana.Supply, error)
	TopHolders(ctx context.Context, mint string, limit int) ([]scoring.HolderBalance, error)
	WalletTokens(ctx context.Context, owner string) ([]solana.WalletToken, error)
}

// MarketSource provides price, liquidity and volume
type MarketSource interface {
	TokenMarketData(ctx context.Context, mint string) (*dexscreener.MarketData, error)
}

// SecurityAuditor provides the external security score
type SecurityAuditor interface {
	Assess(ctx context.Context, mint string) (*rugcheck.Assessment, error)
}

// SwapFeed provides recent parsed swaps
type SwapFeed interface {
	SwapTransactions(ctx context.Context, mint string) ([]helius.EnhancedTransaction, error)
}

// Explainer writes the natural-language summary
type Explainer interface {
	Explain(ctx context.Context, req explain.Request) string
}

// ScanStore records scan history
type ScanStore interface {
	InsertScan(ctx context.Context, rec *storage.ScanRecord) error
}

// Deps are the scanner's collaborators. Explainer and Store may be nil.
type Deps struct {
	Chain     ChainData
	Market    MarketSource
	Security  SecurityAuditor
	Swaps     SwapFeed
	Explainer Explainer
	Store     ScanStore
}

// Options tunes scanning
type Options struct {
	TopHolders     int    // holders requested from the chain
	OceanWorkers   int    // concurrent token scans per wallet scan
	OceanMaxTokens int    // wallet tokens scanned, largest balances first
	Language       string // default explanation language
}

// Scanner orchestrates token and wallet scans
type Scanner struct {
	deps Deps
	opts Options
	log  *logrus.Logger
	now  func() time.Time
}

// New creates a Scanner
func New(deps Deps, opts Options, log *logrus.Logger) *Scanner {
	if opts.TopHolders < scoring.TopHolderCount {
		opts.TopHolders = scoring.TopHolderCount
	}
	if opts.OceanWorkers < 1 {
		opts.OceanWorkers = 1
	}
	if opts.Language == "" {
		opts.Language = explain.LanguageEnglish
	}
	return &Scanner{
		deps: deps,
		opts: opts,
		log:  log,
		now:  time.Now,
	}
}

func validate(address string) error {
	if err := solana.ValidateAddress(address); err != nil {
		return ErrInvalidAddress
	}
	return nil
}

package alerts

import (
	"context"
	"time"

	"github.com/liamashdown/bigfishalert/internal/scanner"
	"github.com/liamashdown/bigfishalert/internal/scoring"
)

// Severity represents alert severity
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityAlert Severity = "ALERT"
)

// AlertPayload contains all information for an alert
type AlertPayload struct {
	Severity        Severity
	TokenAddress    string
	TokenShort      string // Shortened for display
	TokenName       string
	TokenSymbol     string
	Score           int
	MinScore        int // threshold the watchlist entry alerts at
	RiskLevel       scoring.RiskLevel
	RiskLabel       string
	RiskEmoji       string
	FishEmoji       string
	Components      scoring.BigFishScore
	Top10Percentage float64
	PriceUSD        float64
	LiquidityUSD    float64
	Volume24h       float64
	PriceChange24h  float64
	CriticalRisks   []string
	LPLocked        bool
	Explanation     string
	Label           string // optional watchlist label
	Timestamp       time.Time
	Environment     string
}

// Sender defines the interface for alert senders
type Sender interface {
	Send(ctx context.Context, payload *AlertPayload) error
}

// NewPayload builds an alert from a scan
func NewPayload(a *scanner.TokenAnalysis, minScore int, label, environment string) *AlertPayload {
	return &AlertPayload{
		Severity:        SeverityFor(a.Risk.Level),
		TokenAddress:    a.TokenAddress,
		TokenShort:      ShortAddress(a.TokenAddress),
		TokenName:       a.TokenName,
		TokenSymbol:     a.TokenSymbol,
		Score:           a.BigFishScore.Score,
		MinScore:        minScore,
		RiskLevel:       a.Risk.Level,
		RiskLabel:       a.Risk.Label,
		RiskEmoji:       a.Risk.Emoji,
		FishEmoji:       a.FishEmoji,
		Components:      a.BigFishScore,
		Top10Percentage: a.Top10Percentage,
		PriceUSD:        a.Price,
		LiquidityUSD:    a.Liquidity,
		Volume24h:       a.Volume24h,
		PriceChange24h:  a.PriceChange24h,
		CriticalRisks:   a.CriticalRisks,
		LPLocked:        a.LPLocked,
		Explanation:     a.AIExplanation,
		Label:           label,
		Timestamp:       a.ScannedAt,
		Environment:     environment,
	}
}

// SeverityFor maps a risk tier to an alert severity
func SeverityFor(level scoring.RiskLevel) Severity {
	switch level {
	case scoring.RiskHigh:
		return SeverityAlert
	case scoring.RiskMedium:
		return SeverityWarn
	default:
		return SeverityInfo
	}
}

// ShortAddress abbreviates a base58 address as "abcd...wxyz"
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}

// DexscreenerURL links to the token's market page
func DexscreenerURL(addr string) string {
	return "https://dexscreener.com/solana/" + addr
}

// displayName is "Name (SYMBOL)", with the watchlist label when set
func (p *AlertPayload) displayName() string {
	name := p.TokenName + " (" + p.TokenSymbol + ")"
	if p.Label != "" {
		name = p.Label + " · " + name
	}
	return name
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

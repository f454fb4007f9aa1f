// Package scoring computes the Big Fish Score: a 0-100 whale risk estimate
// built from holder concentration, recent whale flow, liquidity depth, an
// external security audit and volume anomalies.
//
// Every function here is pure. Missing data selects a fixed default at a
// documented point instead of producing an error.
package scoring

import (
	"math"
	"time"
)

// Component weights. These and every breakpoint below are fixed constants.
const (
	WeightHolderConcentration = 0.35
	WeightRecentActivity      = 0.30
	WeightLiquidityDepth      = 0.20
	WeightSecurity            = 0.10
	WeightVolumeAnomaly       = 0.05
)

const (
	// NeutralScore is used whenever a component cannot be assessed
	NeutralScore = 50.0

	// MaxRiskScore is returned for tokens with no liquidity at all
	MaxRiskScore = 100.0

	// BigFishThresholdUSD is the minimum single transaction value that counts
	// as whale activity. Smaller trades are ignored.
	BigFishThresholdUSD = 50000.0

	// TopHolderCount is how many of the largest holders feed concentration
	TopHolderCount = 10

	// ActivityWindow is the trailing window for recent activity
	ActivityWindow = 24 * time.Hour
)

// Calculate scores the input against the current time
func Calculate(in Input) BigFishScore {
	return CalculateAt(in, time.Now())
}

// CalculateAt scores the input using now as the end of the activity window
func CalculateAt(in Input, now time.Time) BigFishScore {
	holderScore := HolderConcentration(in.Holders)
	activityScore := RecentActivity(in.RecentTransactions, now)
	liquidityScore := LiquidityDepth(in.Liquidity, in.Volume24h)
	securityScore := Security(in.SecurityScore)
	volumeScore := VolumeAnomaly(in.Volume24h, in.Liquidity)

	weighted := holderScore*WeightHolderConcentration +
		activityScore*WeightRecentActivity +
		liquidityScore*WeightLiquidityDepth +
		securityScore*WeightSecurity +
		volumeScore*WeightVolumeAnomaly

	return BigFishScore{
		Score:               int(math.Round(clamp(weighted, 0, 100))),
		HolderConcentration: holderScore,
		RecentActivity:      activityScore,
		LiquidityDepth:      liquidityScore,
		SecurityScore:       securityScore,
		VolumeAnomaly:       volumeScore,
	}
}

// HolderConcentration maps the combined share of the top 10 holders to risk.
// Holders are expected largest first; fewer than 10 are all used.
func HolderConcentration(holders []TokenHolder) float64 {
	if len(holders) == 0 {
		return NeutralScore
	}

	p := TopHolderPercentage(holders, TopHolderCount)

	switch {
	case p > 70:
		return 70 + (p-70)/30*30
	case p > 50:
		return 40 + (p-50)/20*30
	case p > 30:
		return 20 + (p-30)/20*20
	default:
		return p / 30 * 20
	}
}

// RecentActivity scores the share of whale-sized sells in the trailing 24h.
// Heavy buying scores below neutral, heavy selling above.
func RecentActivity(txs []Transaction, now time.Time) float64 {
	if len(txs) == 0 {
		return NeutralScore
	}

	cutoff := now.Add(-ActivityWindow)
	var sellValue, buyValue float64
	inWindow := 0

	for _, tx := range txs {
		if !tx.Timestamp.After(cutoff) {
			continue
		}
		inWindow++

		if tx.USDValue <= BigFishThresholdUSD {
			continue
		}
		switch tx.Type {
		case TransactionSell:
			sellValue += tx.USDValue
		case TransactionBuy:
			buyValue += tx.USDValue
		}
	}

	if inWindow == 0 {
		return NeutralScore
	}

	total := sellValue + buyValue
	if total == 0 {
		return NeutralScore
	}

	r := sellValue / total

	switch {
	case r > 0.7:
		return 70 + (r-0.7)/0.3*30
	case r > 0.5:
		return 50 + (r-0.5)/0.2*20
	case r < 0.3:
		return r / 0.3 * 30
	default:
		return 30 + (r-0.3)/0.2*20
	}
}

// LiquidityDepth scores how much of a day's trading the pool could absorb.
// No liquidity means a whale can exit with no resistance.
func LiquidityDepth(liquidity, volume24h float64) float64 {
	if liquidity <= 0 {
		return MaxRiskScore
	}

	r := liquidity / math.Max(volume24h, 1)

	switch {
	case r > 5:
		return 10
	case r > 2:
		return 10 + (5-r)/3*20
	case r > 1:
		return 30 + (2-r)*30
	case r > 0.5:
		return 60 + (1-r)/0.5*20
	default:
		return 80 + (0.5-r)/0.5*20
	}
}

// VolumeAnomaly flags trading volume that is out of proportion to liquidity,
// in either direction.
func VolumeAnomaly(volume24h, liquidity float64) float64 {
	if volume24h <= 0 || liquidity <= 0 {
		return NeutralScore
	}

	r := volume24h / liquidity

	switch {
	case r > 3:
		return 90
	case r > 2:
		return 70 + (r-2)*20
	case r > 1:
		return 50 + (r-1)*20
	case r < 0.01:
		return 60 // dormant
	default:
		return 20
	}
}

// Security passes an external audit score through, or the neutral default
func Security(override *float64) float64 {
	if override == nil {
		return NeutralScore
	}
	return *override
}

// TopHolderPercentage sums the percentage of the first n holders
func TopHolderPercentage(holders []TokenHolder, n int) float64 {
	if n > len(holders) {
		n = len(holders)
	}
	var sum float64
	for _, h := range holders[:n] {
		sum += h.Percentage
	}
	return sum
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

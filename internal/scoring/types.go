package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// TransactionType is the direction of a swap relative to the scored token
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// TokenHolder is one holder of a token's supply
type TokenHolder struct {
	Address    string  `json:"address"`
	Balance    uint64  `json:"balance"`    // raw amount in the smallest denomination
	UIAmount   float64 `json:"uiAmount"`   // balance adjusted for decimals
	Percentage float64 `json:"percentage"` // share of total supply, 0-100
}

// Transaction is a priced swap used to gauge directional whale pressure
type Transaction struct {
	Signature string          `json:"signature,omitempty"`
	Type      TransactionType `json:"type"`
	USDValue  float64         `json:"usdValue"`
	Timestamp time.Time       `json:"timestamp"`
}

// Input bundles everything a single scoring call consumes.
//
// Holders must be ranked by balance, largest first. SecurityScore is nil when
// no external audit is available.
type Input struct {
	TokenAddress       string
	Holders            []TokenHolder
	TotalSupply        float64
	Liquidity          float64
	Volume24h          float64
	Price              float64
	RecentTransactions []Transaction
	SecurityScore      *float64
}

// BigFishScore is the composite risk score and its five components
type BigFishScore struct {
	Score               int     `json:"score"`
	HolderConcentration float64 `json:"holderConcentration"`
	RecentActivity      float64 `json:"recentActivity"`
	LiquidityDepth      float64 `json:"liquidityDepth"`
	SecurityScore       float64 `json:"securityScore"`
	VolumeAnomaly       float64 `json:"volumeAnomaly"`
}

// ErrInvalidInput is wrapped by every Validate failure
var ErrInvalidInput = errors.New("invalid scoring input")

// Validate rejects inputs the engine would otherwise have to guess about.
// Zero values are legitimate (they select the documented defaults); NaN,
// infinities and negative amounts are not.
func (in Input) Validate() error {
	numbers := map[string]float64{
		"totalSupply": in.TotalSupply,
		"liquidity":   in.Liquidity,
		"volume24h":   in.Volume24h,
		"price":       in.Price,
	}
	for name, v := range numbers {
		if err := checkAmount(name, v); err != nil {
			return err
		}
	}

	for i, h := range in.Holders {
		if err := checkAmount(fmt.Sprintf("holders[%d].uiAmount", i), h.UIAmount); err != nil {
			return err
		}
		if err := checkAmount(fmt.Sprintf("holders[%d].percentage", i), h.Percentage); err != nil {
			return err
		}
	}

	for i, tx := range in.RecentTransactions {
		if tx.Type != TransactionBuy && tx.Type != TransactionSell {
			return fmt.Errorf("%w: recentTransactions[%d].type %q", ErrInvalidInput, i, tx.Type)
		}
		if err := checkAmount(fmt.Sprintf("recentTransactions[%d].usdValue", i), tx.USDValue); err != nil {
			return err
		}
		if tx.Timestamp.IsZero() {
			return fmt.Errorf("%w: recentTransactions[%d].timestamp missing", ErrInvalidInput, i)
		}
	}

	if in.SecurityScore != nil {
		s := *in.SecurityScore
		if math.IsNaN(s) || s < 0 || s > 100 {
			return fmt.Errorf("%w: securityScore %v outside [0, 100]", ErrInvalidInput, s)
		}
	}

	return nil
}

func checkAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s is not finite", ErrInvalidInput, name)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s is negative (%v)", ErrInvalidInput, name, v)
	}
	return nil
}

package rugcheck

// Risk levels reported by Rugcheck
const (
	LevelInfo   = "info"
	LevelWarn   = "warn"
	LevelDanger = "danger"
)

// Report is the body of /v1/tokens/{mint}/report. Score is higher for
// riskier tokens and absent when Rugcheck could not rate the mint.
type Report struct {
	Mint       string     `json:"mint"`
	Score      *float64   `json:"score"`
	Risks      []Risk     `json:"risks"`
	Markets    []Market   `json:"markets"`
	TopHolders []Holder   `json:"topHolders"`
	TokenMeta  *TokenMeta `json:"tokenMeta"`
	Rugged     bool       `json:"rugged"`
}

// Risk is one flagged issue
type Risk struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Level       string  `json:"level"`
	Score       float64 `json:"score"`
}

// Market is a liquidity pool Rugcheck knows about
type Market struct {
	Pubkey     string `json:"pubkey"`
	MarketType string `json:"marketType"`
	LP         *LP    `json:"lp"`
}

// LP describes how much of a pool's LP tokens are locked or burned
type LP struct {
	LPLockedPct float64 `json:"lpLockedPct"`
	LPLockedUSD float64 `json:"lpLockedUSD"`
}

// Holder is a top holder as Rugcheck ranks them
type Holder struct {
	Address  string  `json:"address"`
	Owner    string  `json:"owner"`
	Pct      float64 `json:"pct"`
	UIAmount float64 `json:"uiAmount"`
	Insider  bool    `json:"insider"`
}

// TokenMeta is Rugcheck's view of the token metadata
type TokenMeta struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

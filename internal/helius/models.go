package helius

// EnhancedTransaction is one parsed transaction from the enhanced API
type EnhancedTransaction struct {
	Signature      string          `json:"signature"`
	Timestamp      int64           `json:"timestamp"` // unix seconds
	Type           string          `json:"type"`
	Source         string          `json:"source"`
	FeePayer       string          `json:"feePayer"`
	TransactionErr any             `json:"transactionError"`
	TokenTransfers []TokenTransfer `json:"tokenTransfers"`
}

// TokenTransfer is an SPL token movement inside a transaction
type TokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	TokenAmount     float64 `json:"tokenAmount"` // already decimal adjusted
	Mint            string  `json:"mint"`
}

// BigFishTrade is a whale-sized swap shown by the activity lookup
type BigFishTrade struct {
	Signature   string  `json:"signature"`
	Wallet      string  `json:"wallet"`
	Type        string  `json:"type"`
	TokenAmount float64 `json:"tokenAmount"`
	USDValue    float64 `json:"usdValue"`
	Timestamp   int64   `json:"timestamp"`
	Source      string  `json:"source,omitempty"`
}

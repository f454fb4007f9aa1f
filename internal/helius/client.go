package helius

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liamashdown/bigfishalert/internal/config"
	"github.com/liamashdown/bigfishalert/internal/httpclient"
	"github.com/liamashdown/bigfishalert/internal/scoring"
)

// maxPageSize is the enhanced transactions API limit per request
const maxPageSize = 100

// Client reads recent swaps for a mint from the Helius enhanced transactions API
type Client struct {
	http   *httpclient.Client
	apiKey string
	limit  int
	log    *logrus.Logger
}

// NewClient creates a new Helius client. Without an API key every lookup
// returns no transactions.
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	limit := cfg.RecentTxLimit
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return &Client{
		http: httpclient.New(httpclient.Options{
			API:      "helius",
			BaseURL:  cfg.HeliusBaseURL,
			RPS:      cfg.HeliusRPS,
			Timeout:  cfg.UpstreamTimeout,
			MaxRetry: cfg.UpstreamMaxRetry,
		}, log),
		apiKey: cfg.HeliusAPIKey,
		limit:  limit,
		log:    log,
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// SwapTransactions fetches the latest parsed SWAP transactions touching mint
func (c *Client) SwapTransactions(ctx context.Context, mint string) ([]EnhancedTransaction, error) {
	if !c.Enabled() {
		return nil, nil
	}

	q := url.Values{}
	q.Set("api-key", c.apiKey)
	q.Set("type", "SWAP")
	q.Set("limit", strconv.Itoa(c.limit))

	var txs []EnhancedTransaction
	path := "/v0/addresses/" + url.PathEscape(mint) + "/transactions"
	if err := c.http.GetJSON(ctx, "transactions", path, q, &txs); err != nil {
		return nil, fmt.Errorf("fetch swaps: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"mint":  mint,
		"count": len(txs),
	}).Debug("Fetched recent swaps")

	return txs, nil
}

// ToTransactions prices classified swaps for the scoring engine
func ToTransactions(raw []EnhancedTransaction, mint string, priceUSD float64) []scoring.Transaction {
	txs := make([]scoring.Transaction, 0, len(raw))
	for _, etx := range raw {
		side, amount, ok := Classify(etx, mint)
		if !ok {
			continue
		}
		txs = append(txs, scoring.Transaction{
			Signature: etx.Signature,
			Type:      side,
			USDValue:  amount * priceUSD,
			Timestamp: time.Unix(etx.Timestamp, 0).UTC(),
		})
	}
	return txs
}

// BigFishTrades returns the swaps worth at least minUSD, in feed order
func BigFishTrades(raw []EnhancedTransaction, mint string, priceUSD, minUSD float64) []BigFishTrade {
	var trades []BigFishTrade
	for _, etx := range raw {
		side, amount, ok := Classify(etx, mint)
		if !ok {
			continue
		}
		usd := amount * priceUSD
		if usd < minUSD {
			continue
		}
		trades = append(trades, BigFishTrade{
			Signature:   etx.Signature,
			Wallet:      etx.FeePayer,
			Type:        string(side),
			TokenAmount: amount,
			USDValue:    usd,
			Timestamp:   etx.Timestamp,
			Source:      etx.Source,
		})
	}
	return trades
}

// Classify works out the direction of a swap from the fee payer's point of
// view. The fee payer receiving the mint is a BUY, sending it is a SELL. Failed
// transactions and swaps that do not move the mint for the fee payer are
// skipped.
func Classify(etx EnhancedTransaction, mint string) (scoring.TransactionType, float64, bool) {
	if etx.TransactionErr != nil || etx.FeePayer == "" || etx.Timestamp <= 0 {
		return "", 0, false
	}

	var received, sent float64
	for _, tt := range etx.TokenTransfers {
		if tt.Mint != mint || tt.TokenAmount <= 0 {
			continue
		}
		if tt.ToUserAccount == etx.FeePayer {
			received += tt.TokenAmount
		}
		if tt.FromUserAccount == etx.FeePayer {
			sent += tt.TokenAmount
		}
	}

	switch {
	case received > sent:
		return scoring.TransactionBuy, received - sent, true
	case sent > received:
		return scoring.TransactionSell, sent - received, true
	default:
		return "", 0, false
	}
}

package helius

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamashdown/bigfishalert/internal/config"
	"github.com/liamashdown/bigfishalert/internal/scoring"
)

const mint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

const swapsBody = `[
	{"signature": "buy1", "timestamp": 1717243200, "type": "SWAP", "source": "RAYDIUM", "feePayer": "whale",
	 "tokenTransfers": [
		{"fromUserAccount": "pool", "toUserAccount": "whale", "tokenAmount": 5000000, "mint": "` + mint + `"},
		{"fromUserAccount": "whale", "toUserAccount": "pool", "tokenAmount": 12.5, "mint": "So11111111111111111111111111111111111111112"}
	 ]},
	{"signature": "sell1", "timestamp": 1717243100, "type": "SWAP", "source": "JUPITER", "feePayer": "shrimp",
	 "tokenTransfers": [
		{"fromUserAccount": "shrimp", "toUserAccount": "pool", "tokenAmount": 1000, "mint": "` + mint + `"}
	 ]},
	{"signature": "failed", "timestamp": 1717243000, "type": "SWAP", "feePayer": "whale", "transactionError": {"InstructionError": [0, "Custom"]},
	 "tokenTransfers": [
		{"fromUserAccount": "pool", "toUserAccount": "whale", "tokenAmount": 1, "mint": "` + mint + `"}
	 ]},
	{"signature": "unrelated", "timestamp": 1717242900, "type": "SWAP", "feePayer": "bot",
	 "tokenTransfers": [
		{"fromUserAccount": "a", "toUserAccount": "b", "tokenAmount": 99, "mint": "` + mint + `"}
	 ]}
]`

func newTestClient(t *testing.T, apiKey string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewClient(&config.Config{
		HeliusBaseURL:   srv.URL,
		HeliusAPIKey:    apiKey,
		HeliusRPS:       100,
		RecentTxLimit:   50,
		UpstreamTimeout: time.Second,
	}, log)
}

func TestSwapTransactions(t *testing.T) {
	c := newTestClient(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/addresses/"+mint+"/transactions", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "SWAP", r.URL.Query().Get("type"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Write([]byte(swapsBody))
	})

	raw, err := c.SwapTransactions(context.Background(), mint)
	require.NoError(t, err)
	require.Len(t, raw, 4)

	txs := ToTransactions(raw, mint, 0.02)
	require.Len(t, txs, 2)

	assert.Equal(t, "buy1", txs[0].Signature)
	assert.Equal(t, scoring.TransactionBuy, txs[0].Type)
	assert.InDelta(t, 100000, txs[0].USDValue, 1e-6)
	assert.Equal(t, time.Unix(1717243200, 0).UTC(), txs[0].Timestamp)

	assert.Equal(t, scoring.TransactionSell, txs[1].Type)
	assert.InDelta(t, 20, txs[1].USDValue, 1e-9)
}

func TestBigFishTrades(t *testing.T) {
	c := newTestClient(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(swapsBody))
	})

	raw, err := c.SwapTransactions(context.Background(), mint)
	require.NoError(t, err)

	trades := BigFishTrades(raw, mint, 0.02, scoring.BigFishThresholdUSD)
	require.Len(t, trades, 1)
	assert.Equal(t, "whale", trades[0].Wallet)
	assert.Equal(t, "BUY", trades[0].Type)
	assert.Equal(t, "RAYDIUM", trades[0].Source)
}

func TestNoAPIKeyReturnsNothing(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without an API key")
	})

	assert.False(t, c.Enabled())
	raw, err := c.SwapTransactions(context.Background(), mint)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestClassify(t *testing.T) {
	transfer := func(from, to string, amount float64) TokenTransfer {
		return TokenTransfer{FromUserAccount: from, ToUserAccount: to, TokenAmount: amount, Mint: mint}
	}

	tests := []struct {
		name   string
		tx     EnhancedTransaction
		side   scoring.TransactionType
		amount float64
		ok     bool
	}{
		{
			name:   "net receive is a buy",
			tx:     EnhancedTransaction{FeePayer: "w", Timestamp: 1, TokenTransfers: []TokenTransfer{transfer("p", "w", 10), transfer("w", "p", 4)}},
			side:   scoring.TransactionBuy,
			amount: 6,
			ok:     true,
		},
		{
			name:   "send is a sell",
			tx:     EnhancedTransaction{FeePayer: "w", Timestamp: 1, TokenTransfers: []TokenTransfer{transfer("w", "p", 7)}},
			side:   scoring.TransactionSell,
			amount: 7,
			ok:     true,
		},
		{
			name: "round trip nets to nothing",
			tx:   EnhancedTransaction{FeePayer: "w", Timestamp: 1, TokenTransfers: []TokenTransfer{transfer("w", "p", 3), transfer("p", "w", 3)}},
		},
		{
			name: "missing timestamp",
			tx:   EnhancedTransaction{FeePayer: "w", TokenTransfers: []TokenTransfer{transfer("w", "p", 3)}},
		},
		{
			name: "other mint only",
			tx: EnhancedTransaction{FeePayer: "w", Timestamp: 1, TokenTransfers: []TokenTransfer{
				{FromUserAccount: "w", ToUserAccount: "p", TokenAmount: 3, Mint: "other"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			side, amount, ok := Classify(tt.tx, mint)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.side, side)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

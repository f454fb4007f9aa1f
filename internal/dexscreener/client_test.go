package dexscreener

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
)

const bonk = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewClient(&config.Config{
		DexscreenerBaseURL: srv.URL,
		DexscreenerRPS:     100,
		UpstreamTimeout:    time.Second,
	}, log)
}

func TestTokenMarketDataPicksDeepestPair(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/"+bonk, r.URL.Path)
		w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":[
			{"pairAddress":"shallow","dexId":"orca","priceUsd":"0.0000201","liquidity":{"usd":12000},
			 "baseToken":{"address":"` + bonk + `","name":"Bonk","symbol":"Bonk"},"volume":{"h24":5000}},
			{"pairAddress":"deep","dexId":"raydium","priceUsd":"0.00002034","liquidity":{"usd":4500000},
			 "baseToken":{"address":"` + bonk + `","name":"Bonk","symbol":"Bonk"},
			 "volume":{"h24":1200000},"priceChange":{"h24":-4.5},"marketCap":1500000000,
			 "txns":{"h24":{"buys":900,"sells":1100}}},
			{"pairAddress":"no-liquidity","priceUsd":"0.00002"}
		]}`))
	})

	md, err := c.TokenMarketData(context.Background(), bonk)
	require.NoError(t, err)
	require.NotNil(t, md)

	assert.Equal(t, "deep", md.PairAddress)
	assert.Equal(t, "Bonk", md.Symbol)
	assert.InDelta(t, 0.00002034, md.PriceUSD, 1e-12)
	assert.Equal(t, 4500000.0, md.LiquidityUSD)
	assert.Equal(t, 1200000.0, md.Volume24h)
	assert.Equal(t, -4.5, md.PriceChange24h)
	assert.Equal(t, 1100, md.Sells24h)
}

func TestTokenMarketDataNoPairs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":null}`))
	})

	md, err := c.TokenMarketData(context.Background(), bonk)
	require.NoError(t, err)
	assert.Nil(t, md)

	price, err := c.TokenPrice(context.Background(), bonk)
	require.NoError(t, err)
	assert.Zero(t, price)
}

func TestTokenMarketDataQuoteSide(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[{"pairAddress":"p","priceUsd":"bad","liquidity":{"usd":10},
			"baseToken":{"address":"So11111111111111111111111111111111111111112","name":"Wrapped SOL","symbol":"SOL"},
			"quoteToken":{"address":"` + bonk + `","name":"Bonk","symbol":"Bonk"}}]}`))
	})

	md, err := c.TokenMarketData(context.Background(), bonk)
	require.NoError(t, err)
	assert.Equal(t, "Bonk", md.Name)
	assert.Zero(t, md.PriceUSD, "unparseable price is treated as zero")
}

func TestTokenMarketDataUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.TokenMarketData(context.Background(), bonk)
	assert.Error(t, err)
}

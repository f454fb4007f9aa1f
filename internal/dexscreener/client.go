package dexscreener

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/liamashdown/bigfishalert/internal/config"
	"github.com/liamashdown/bigfishalert/internal/httpclient"
)

// Client fetches market data from the Dexscreener public API
type Client struct {
	http *httpclient.Client
	log  *logrus.Logger
}

// NewClient creates a new Dexscreener client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		http: httpclient.New(httpclient.Options{
			API:      "dexscreener",
			BaseURL:  cfg.DexscreenerBaseURL,
			RPS:      cfg.DexscreenerRPS,
			Timeout:  cfg.UpstreamTimeout,
			MaxRetry: cfg.UpstreamMaxRetry,
		}, log),
		log: log,
	}
}

// TokenMarketData returns market data from the pair with the highest USD
// liquidity, or nil when the token has no pairs
func (c *Client) TokenMarketData(ctx context.Context, mint string) (*MarketData, error) {
	var resp TokensResponse
	path := "/latest/dex/tokens/" + url.PathEscape(mint)
	if err := c.http.GetJSON(ctx, "tokens", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch pairs: %w", err)
	}

	best := deepestPair(resp.Pairs)
	if best == nil {
		return nil, nil
	}

	price, err := parsePrice(best.PriceUSD)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"mint":      mint,
			"pair":      best.PairAddress,
			"price_usd": best.PriceUSD,
		}).Warn("Unparseable pair price, treating as zero")
	}

	// name and symbol come from whichever side of the pair is the token
	tok := best.BaseToken
	if best.QuoteToken.Address == mint {
		tok = best.QuoteToken
	}

	return &MarketData{
		PairAddress:    best.PairAddress,
		DexID:          best.DexID,
		URL:            best.URL,
		Name:           tok.Name,
		Symbol:         tok.Symbol,
		PriceUSD:       price,
		LiquidityUSD:   best.liquidityUSD(),
		Volume24h:      best.Volume.H24,
		PriceChange24h: best.PriceChange.H24,
		FDV:            best.FDV,
		MarketCap:      best.MarketCap,
		Buys24h:        best.Txns.H24.Buys,
		Sells24h:       best.Txns.H24.Sells,
	}, nil
}

// TokenPrice returns the USD price from the deepest pair, 0 when unknown
func (c *Client) TokenPrice(ctx context.Context, mint string) (float64, error) {
	md, err := c.TokenMarketData(ctx, mint)
	if err != nil || md == nil {
		return 0, err
	}
	return md.PriceUSD, nil
}

func deepestPair(pairs []Pair) *Pair {
	var best *Pair
	for i := range pairs {
		if best == nil || pairs[i].liquidityUSD() > best.liquidityUSD() {
			best = &pairs[i]
		}
	}
	return best
}

func parsePrice(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

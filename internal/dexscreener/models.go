package dexscreener

// TokensResponse is the body of /latest/dex/tokens/{address}
type TokensResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

// Pair is one trading pair that includes the token
type Pair struct {
	ChainID       string     `json:"chainId"`
	DexID         string     `json:"dexId"`
	URL           string     `json:"url"`
	PairAddress   string     `json:"pairAddress"`
	BaseToken     Token      `json:"baseToken"`
	QuoteToken    Token      `json:"quoteToken"`
	PriceNative   string     `json:"priceNative"`
	PriceUSD      string     `json:"priceUsd"`
	Txns          Txns       `json:"txns"`
	Volume        Periods    `json:"volume"`
	PriceChange   Periods    `json:"priceChange"`
	Liquidity     *Liquidity `json:"liquidity"`
	FDV           float64    `json:"fdv"`
	MarketCap     float64    `json:"marketCap"`
	PairCreatedAt int64      `json:"pairCreatedAt"`
}

// Token is a side of a pair
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Liquidity is pool depth; missing for some pairs
type Liquidity struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// Txns holds buy and sell counts per window
type Txns struct {
	H1  TxnCount `json:"h1"`
	H24 TxnCount `json:"h24"`
}

// TxnCount is a buy/sell count pair
type TxnCount struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Periods is a value per trailing window
type Periods struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// MarketData is the market snapshot taken from the deepest pair
type MarketData struct {
	PairAddress    string  `json:"pairAddress"`
	DexID          string  `json:"dexId"`
	URL            string  `json:"url,omitempty"`
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	PriceUSD       float64 `json:"priceUsd"`
	LiquidityUSD   float64 `json:"liquidityUsd"`
	Volume24h      float64 `json:"volume24h"`
	PriceChange24h float64 `json:"priceChange24h"`
	FDV            float64 `json:"fdv"`
	MarketCap      float64 `json:"marketCap"`
	Buys24h        int     `json:"buys24h"`
	Sells24h       int     `json:"sells24h"`
}

func (p Pair) liquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD
}

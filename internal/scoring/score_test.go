package scoring

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

const tolerance = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func holdersWithTotal(n int, each float64) []TokenHolder {
	holders := make([]TokenHolder, n)
	for i := range holders {
		holders[i] = TokenHolder{Address: "holder", Percentage: each}
	}
	return holders
}

func TestHolderConcentration(t *testing.T) {
	tests := []struct {
		name     string
		holders  []TokenHolder
		expected float64
	}{
		{"no holders is neutral", nil, 50},
		{"zero concentration", holdersWithTotal(10, 0), 0},
		{"15 percent", holdersWithTotal(10, 1.5), 10},
		{"30 percent boundary", holdersWithTotal(10, 3), 20},
		{"40 percent", holdersWithTotal(10, 4), 30},
		{"50 percent boundary", holdersWithTotal(10, 5), 40},
		{"60 percent", holdersWithTotal(10, 6), 55},
		{"70 percent boundary", holdersWithTotal(10, 7), 70},
		{"100 percent", holdersWithTotal(10, 10), 100},
		{"fewer than ten holders all count", holdersWithTotal(4, 20), 80},
		{"rounding drift above 100", holdersWithTotal(10, 10.1), 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HolderConcentration(tt.holders)
			if !approxEqual(got, tt.expected) {
				t.Errorf("got %.6f, want %.6f", got, tt.expected)
			}
		})
	}
}

func TestHolderConcentrationOnlyTopTen(t *testing.T) {
	// 12 holders, top 10 at 8% each (80%), two small holders after them
	holders := holdersWithTotal(10, 8)
	holders = append(holders, TokenHolder{Percentage: 1}, TokenHolder{Percentage: 1})

	got := HolderConcentration(holders)
	if !approxEqual(got, 80) {
		t.Errorf("got %.6f, want 80 (70 + (80-70)/30*30)", got)
	}
}

func TestRecentActivity(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	hourAgo := now.Add(-time.Hour)

	sell := func(v float64) Transaction {
		return Transaction{Type: TransactionSell, USDValue: v, Timestamp: hourAgo}
	}
	buy := func(v float64) Transaction {
		return Transaction{Type: TransactionBuy, USDValue: v, Timestamp: hourAgo}
	}

	tests := []struct {
		name     string
		txs      []Transaction
		expected float64
	}{
		{"no transactions", nil, 50},
		{
			name: "all outside window",
			txs: []Transaction{
				{Type: TransactionSell, USDValue: 100000, Timestamp: now.Add(-25 * time.Hour)},
			},
			expected: 50,
		},
		{
			name:     "exactly 24h old is outside window",
			txs:      []Transaction{{Type: TransactionSell, USDValue: 100000, Timestamp: now.Add(-24 * time.Hour)}},
			expected: 50,
		},
		{"only retail sized trades", []Transaction{sell(49000), buy(20000)}, 50},
		{"threshold itself does not count", []Transaction{sell(50000)}, 50},
		{"single whale sell and tiny buy", []Transaction{sell(100000), buy(0)}, 100},
		{"single whale buy", []Transaction{buy(100000)}, 0},
		{"balanced flow", []Transaction{sell(100000), buy(100000)}, 50},
		{"sell ratio 0.4", []Transaction{sell(200000), buy(300000)}, 40},
		{"sell ratio 0.6", []Transaction{sell(300000), buy(200000)}, 60},
		{"sell ratio 0.8", []Transaction{sell(400000), buy(100000)}, 80},
		{"sell ratio 0.2", []Transaction{sell(100000), buy(400000)}, 20},
		{
			name: "old whale sells ignored",
			txs: []Transaction{
				buy(100000),
				{Type: TransactionSell, USDValue: 900000, Timestamp: now.Add(-48 * time.Hour)},
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecentActivity(tt.txs, now)
			if !approxEqual(got, tt.expected) {
				t.Errorf("got %.6f, want %.6f", got, tt.expected)
			}
		})
	}
}

func TestLiquidityDepth(t *testing.T) {
	tests := []struct {
		name      string
		liquidity float64
		volume    float64
		expected  float64
	}{
		{"no liquidity no volume", 0, 0, 100},
		{"no liquidity huge volume", 0, 5_000_000, 100},
		{"zero volume uses floor of one", 10, 0, 10},
		{"ratio 10", 1_000_000, 100_000, 10},
		{"ratio 5 boundary", 500_000, 100_000, 10},
		{"ratio 3.5", 350_000, 100_000, 20},
		{"ratio 2 boundary", 200_000, 100_000, 30},
		{"ratio 1.5", 150_000, 100_000, 45},
		{"ratio 1 boundary", 100_000, 100_000, 60},
		{"ratio 0.75", 75_000, 100_000, 70},
		{"ratio 0.5 boundary", 50_000, 100_000, 80},
		{"ratio 0.25", 25_000, 100_000, 90},
		{"tiny ratio", 1, 1_000_000_000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LiquidityDepth(tt.liquidity, tt.volume)
			if math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("liquidity=%.0f volume=%.0f: got %.6f, want %.6f",
					tt.liquidity, tt.volume, got, tt.expected)
			}
		})
	}
}

func TestVolumeAnomaly(t *testing.T) {
	tests := []struct {
		name      string
		volume    float64
		liquidity float64
		expected  float64
	}{
		{"no volume", 0, 100_000, 50},
		{"no liquidity", 100_000, 0, 50},
		{"both zero", 0, 0, 50},
		{"extreme spike", 400_000, 100_000, 90},
		{"ratio 3 boundary", 300_000, 100_000, 90},
		{"ratio 2.5", 250_000, 100_000, 80},
		{"ratio 2 boundary", 200_000, 100_000, 70},
		{"ratio 1.5", 150_000, 100_000, 60},
		{"ratio 1 is normal", 100_000, 100_000, 20},
		{"ratio 0.3 normal", 30_000, 100_000, 20},
		{"ratio 0.01 still normal", 1_000, 100_000, 20},
		{"dormant", 500, 100_000, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VolumeAnomaly(tt.volume, tt.liquidity)
			if math.Abs(got-tt.expected) > 1e-6 {
				t.Errorf("volume=%.0f liquidity=%.0f: got %.6f, want %.6f",
					tt.volume, tt.liquidity, got, tt.expected)
			}
		})
	}
}

func TestSecurity(t *testing.T) {
	if got := Security(nil); got != 50 {
		t.Errorf("missing override: got %.2f, want 50", got)
	}

	zero := 0.0
	if got := Security(&zero); got != 0 {
		t.Errorf("zero override must pass through: got %.2f", got)
	}

	high := 87.5
	if got := Security(&high); got != 87.5 {
		t.Errorf("got %.2f, want 87.5", got)
	}
}

func TestBoundaryContinuity(t *testing.T) {
	const eps = 1e-9

	checks := []struct {
		name  string
		fn    func(x float64) float64
		at    float64
		value float64
	}{
		{"holder 30", func(p float64) float64 { return HolderConcentration(holdersWithTotal(1, p)) }, 30, 20},
		{"holder 50", func(p float64) float64 { return HolderConcentration(holdersWithTotal(1, p)) }, 50, 40},
		{"holder 70", func(p float64) float64 { return HolderConcentration(holdersWithTotal(1, p)) }, 70, 70},
		{"activity 0.3", sellRatioScore, 0.3, 30},
		{"activity 0.5", sellRatioScore, 0.5, 50},
		{"activity 0.7", sellRatioScore, 0.7, 70},
		{"liquidity 0.5", func(r float64) float64 { return LiquidityDepth(r*1e6, 1e6) }, 0.5, 80},
		{"liquidity 1", func(r float64) float64 { return LiquidityDepth(r*1e6, 1e6) }, 1, 60},
		{"liquidity 2", func(r float64) float64 { return LiquidityDepth(r*1e6, 1e6) }, 2, 30},
		{"liquidity 5", func(r float64) float64 { return LiquidityDepth(r*1e6, 1e6) }, 5, 10},
		{"volume 2", func(r float64) float64 { return VolumeAnomaly(r*1e6, 1e6) }, 2, 70},
		{"volume 3", func(r float64) float64 { return VolumeAnomaly(r*1e6, 1e6) }, 3, 90},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			for _, x := range []float64{c.at - eps, c.at, c.at + eps} {
				got := c.fn(x)
				if math.Abs(got-c.value) > 1e-4 {
					t.Errorf("at %.12f: got %.9f, want %.4f", x, got, c.value)
				}
			}
		})
	}
}

// sellRatioScore evaluates RecentActivity for a given sell ratio
func sellRatioScore(r float64) float64 {
	now := time.Now()
	total := 10_000_000.0
	var txs []Transaction
	if sell := total * r; sell > 0 {
		txs = append(txs, Transaction{Type: TransactionSell, USDValue: sell, Timestamp: now})
	}
	if buy := total * (1 - r); buy > 0 {
		txs = append(txs, Transaction{Type: TransactionBuy, USDValue: buy, Timestamp: now})
	}
	return RecentActivity(txs, now.Add(time.Minute))
}

func TestMonotonicity(t *testing.T) {
	prev := -1.0
	for p := 0.0; p <= 100; p += 0.25 {
		got := HolderConcentration(holdersWithTotal(1, p))
		if got < prev-tolerance {
			t.Fatalf("holder concentration decreased at %.2f%%: %.6f < %.6f", p, got, prev)
		}
		prev = got
	}

	prev = -1.0
	for r := 0.01; r <= 0.99; r += 0.01 {
		got := sellRatioScore(r)
		if got < prev-1e-6 {
			t.Fatalf("recent activity decreased at sell ratio %.2f: %.6f < %.6f", r, got, prev)
		}
		prev = got
	}

	// decreasing the liquidity ratio never lowers risk
	prev = -1.0
	for r := 20.0; r > 0.001; r -= 0.01 {
		got := LiquidityDepth(r*1e6, 1e6)
		if got < prev-1e-6 {
			t.Fatalf("liquidity depth decreased at ratio %.3f: %.6f < %.6f", r, got, prev)
		}
		prev = got
	}
}

func TestCalculateAllDefaults(t *testing.T) {
	got := CalculateAt(Input{}, time.Now())

	want := BigFishScore{
		Score:               60,
		HolderConcentration: 50,
		RecentActivity:      50,
		LiquidityDepth:      100,
		SecurityScore:       50,
		VolumeAnomaly:       50,
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if risk := ClassifyRisk(got.Score); risk.Level != RiskMedium {
		t.Errorf("risk level: got %s, want MEDIUM", risk.Level)
	}
}

func TestCalculateComposite(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	security := 20.0

	in := Input{
		TokenAddress: "So11111111111111111111111111111111111111112",
		Holders:      holdersWithTotal(10, 6), // 60% -> 55
		TotalSupply:  1_000_000,
		Liquidity:    150_000, // ratio 1.5 -> 45; volume ratio 0.666 -> 20
		Volume24h:    100_000,
		Price:        1.25,
		RecentTransactions: []Transaction{ // sell ratio 0.8 -> 80
			{Type: TransactionSell, USDValue: 400_000, Timestamp: now.Add(-2 * time.Hour)},
			{Type: TransactionBuy, USDValue: 100_000, Timestamp: now.Add(-3 * time.Hour)},
		},
		SecurityScore: &security,
	}

	got := CalculateAt(in, now)

	// 0.35*55 + 0.30*80 + 0.20*45 + 0.10*20 + 0.05*20 = 19.25 + 24 + 9 + 2 + 1 = 55.25
	if got.Score != 55 {
		t.Errorf("composite: got %d, want 55 (%+v)", got.Score, got)
	}
	if !approxEqual(got.HolderConcentration, 55) ||
		math.Abs(got.RecentActivity-80) > 1e-6 ||
		math.Abs(got.LiquidityDepth-45) > 1e-6 ||
		got.SecurityScore != 20 ||
		got.VolumeAnomaly != 20 {
		t.Errorf("unexpected components: %+v", got)
	}
}

func TestCalculateClampsExtremeInputs(t *testing.T) {
	security := 100.0
	now := time.Now()
	in := Input{
		Holders:            holdersWithTotal(10, 15), // 150% drift -> 150
		Liquidity:          1,
		Volume24h:          1_000_000_000,
		RecentTransactions: []Transaction{{Type: TransactionSell, USDValue: 1e9, Timestamp: now}},
		SecurityScore:      &security,
	}

	got := CalculateAt(in, now)
	if got.Score != 100 {
		t.Errorf("expected clamp to 100, got %d (%+v)", got.Score, got)
	}
}

func TestCalculateDegenerateInputsStayFinite(t *testing.T) {
	now := time.Now()
	base := Input{
		Holders:     holdersWithTotal(10, 5),
		TotalSupply: 1_000_000,
		Liquidity:   250_000,
		Volume24h:   100_000,
		RecentTransactions: []Transaction{
			{Type: TransactionBuy, USDValue: 75_000, Timestamp: now.Add(-time.Minute)},
		},
	}

	variants := map[string]func(in *Input){
		"no holders":      func(in *Input) { in.Holders = nil },
		"zero supply":     func(in *Input) { in.TotalSupply = 0 },
		"zero liquidity":  func(in *Input) { in.Liquidity = 0 },
		"zero volume":     func(in *Input) { in.Volume24h = 0 },
		"no transactions": func(in *Input) { in.RecentTransactions = nil },
	}

	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			assertFiniteInRange(t, CalculateAt(in, now))
		})
	}
}

func TestCalculateRandomInputsInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	now := time.Now()

	for i := 0; i < 2000; i++ {
		n := rng.Intn(15)
		holders := make([]TokenHolder, n)
		for j := range holders {
			holders[j] = TokenHolder{Percentage: rng.Float64() * 12}
		}

		var txs []Transaction
		for j := 0; j < rng.Intn(8); j++ {
			typ := TransactionBuy
			if rng.Intn(2) == 0 {
				typ = TransactionSell
			}
			txs = append(txs, Transaction{
				Type:      typ,
				USDValue:  rng.Float64() * 500_000,
				Timestamp: now.Add(-time.Duration(rng.Intn(48)) * time.Hour),
			})
		}

		in := Input{
			Holders:            holders,
			TotalSupply:        rng.Float64() * 1e9,
			Liquidity:          rng.Float64() * 1e6 * float64(rng.Intn(2)),
			Volume24h:          rng.Float64() * 1e7 * float64(rng.Intn(2)),
			RecentTransactions: txs,
		}
		if rng.Intn(2) == 0 {
			s := rng.Float64() * 100
			in.SecurityScore = &s
		}
		if err := in.Validate(); err != nil {
			t.Fatalf("generated input should be valid: %v", err)
		}

		got := CalculateAt(in, now)
		assertFiniteInRange(t, got)

		level := ClassifyRisk(got.Score).Level
		if level != RiskLow && level != RiskMedium && level != RiskHigh {
			t.Fatalf("score %d classified as %q", got.Score, level)
		}
	}
}

func assertFiniteInRange(t *testing.T, s BigFishScore) {
	t.Helper()
	if s.Score < 0 || s.Score > 100 {
		t.Errorf("score %d out of range", s.Score)
	}
	for name, v := range map[string]float64{
		"holderConcentration": s.HolderConcentration,
		"recentActivity":      s.RecentActivity,
		"liquidityDepth":      s.LiquidityDepth,
		"securityScore":       s.SecurityScore,
		"volumeAnomaly":       s.VolumeAnomaly,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s is not finite: %v", name, v)
		}
	}
}

func TestValidate(t *testing.T) {
	now := time.Now()
	bad := 101.0

	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{"empty input is valid", Input{}, false},
		{"nan liquidity", Input{Liquidity: math.NaN()}, true},
		{"infinite volume", Input{Volume24h: math.Inf(1)}, true},
		{"negative supply", Input{TotalSupply: -1}, true},
		{"nan holder percentage", Input{Holders: []TokenHolder{{Percentage: math.NaN()}}}, true},
		{"unknown transaction type", Input{RecentTransactions: []Transaction{{Type: "SWAP", USDValue: 1, Timestamp: now}}}, true},
		{"missing timestamp", Input{RecentTransactions: []Transaction{{Type: TransactionBuy, USDValue: 1}}}, true},
		{"security out of range", Input{SecurityScore: &bad}, true},
		{
			name: "well formed",
			in: Input{
				Holders:            holdersWithTotal(3, 10),
				Liquidity:          10,
				RecentTransactions: []Transaction{{Type: TransactionSell, USDValue: 60_000, Timestamp: now}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error should wrap ErrInvalidInput: %v", err)
			}
		})
	}
}

func TestHoldersFromBalances(t *testing.T) {
	balances := []HolderBalance{
		{Address: "small", Balance: 100, UIAmount: 100},
		{Address: "big", Balance: 600, UIAmount: 600},
		{Address: "mid", Balance: 300, UIAmount: 300},
	}

	holders := HoldersFromBalances(balances, 1000)
	if len(holders) != 3 {
		t.Fatalf("got %d holders, want 3", len(holders))
	}

	wantOrder := []string{"big", "mid", "small"}
	wantPct := []float64{60, 30, 10}
	for i, h := range holders {
		if h.Address != wantOrder[i] {
			t.Errorf("rank %d: got %s, want %s", i, h.Address, wantOrder[i])
		}
		if !approxEqual(h.Percentage, wantPct[i]) {
			t.Errorf("rank %d: got %.4f%%, want %.4f%%", i, h.Percentage, wantPct[i])
		}
	}

	if got := HoldersFromBalances(balances, 0); got != nil {
		t.Errorf("zero supply should yield no holders, got %v", got)
	}
}

package scoring

import "sort"

// HolderBalance is a raw holder record before its supply share is known
type HolderBalance struct {
	Address  string
	Balance  uint64
	UIAmount float64
}

// HoldersFromBalances ranks balances largest first and computes each holder's
// share of totalSupply. A non-positive supply yields no holders, which makes
// concentration fall back to the neutral score instead of dividing by zero.
func HoldersFromBalances(balances []HolderBalance, totalSupply float64) []TokenHolder {
	if totalSupply <= 0 || len(balances) == 0 {
		return nil
	}

	holders := make([]TokenHolder, 0, len(balances))
	for _, b := range balances {
		holders = append(holders, TokenHolder{
			Address:    b.Address,
			Balance:    b.Balance,
			UIAmount:   b.UIAmount,
			Percentage: b.UIAmount / totalSupply * 100,
		})
	}

	sort.SliceStable(holders, func(i, j int) bool {
		return holders[i].UIAmount > holders[j].UIAmount
	})

	return holders
}

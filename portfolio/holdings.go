// Package portfolio derives positions from the append-only trade log.
package portfolio

import (
	"sort"

	"stocks-ledger/models"
)

// Fold nets buys against sells per symbol and returns the open positions
// sorted by symbol. Symbols whose net is zero or below are left out.
func Fold(trades []models.Trade) []models.Holding {
	net := make(map[string]int64)
	for _, t := range trades {
		switch t.Side {
		case models.Buy:
			net[t.Symbol] += t.Shares
		case models.Sell:
			net[t.Symbol] -= t.Shares
		}
	}

	out := make([]models.Holding, 0, len(net))
	for symbol, shares := range net {
		if shares > 0 {
			out = append(out, models.Holding{Symbol: symbol, Shares: shares})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// PositionOf returns the net shares held in symbol, or 0 for a closed or
// never-opened position.
func PositionOf(trades []models.Trade, symbol string) int64 {
	var net int64
	for _, t := range trades {
		if t.Symbol != symbol {
			continue
		}
		switch t.Side {
		case models.Buy:
			net += t.Shares
		case models.Sell:
			net -= t.Shares
		}
	}
	if net < 0 {
		return 0
	}
	return net
}

package models

import "github.com/shopspring/decimal"

// Quote is a provider's current price for a symbol.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places kept for snapshot prices and cash.
const PriceScale = 4

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func (s Side) Valid() bool { return s == Buy || s == Sell }

// Trade is one executed buy or sell. Rows are only ever inserted; Price is the
// quote observed at execution and is never re-priced.
type Trade struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index:idx_trades_user_symbol;not null" json:"user_id"`
	Symbol     string          `gorm:"index:idx_trades_user_symbol;size:16;not null" json:"symbol"`
	Shares     int64           `gorm:"not null" json:"shares"`
	Price      decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"price"`
	Side       Side            `gorm:"size:4;not null" json:"side"`
	ExecutedAt time.Time       `gorm:"index;not null" json:"executed_at"`
}

// Amount is the cash value of the trade at its snapshot price.
func (t Trade) Amount() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Shares))
}

// CashDelta is the signed effect of the trade on the owner's cash.
func (t Trade) CashDelta() decimal.Decimal {
	if t.Side == Buy {
		return t.Amount().Neg()
	}
	return t.Amount()
}

// Holding is a derived open position.
type Holding struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}

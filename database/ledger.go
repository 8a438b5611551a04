package database

import (
	"time"

	"stocks-ledger/apperr"
	"stocks-ledger/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerTx is the view of one user's ledger inside an open InUserTx unit.
// It must not be retained after the callback returns.
type LedgerTx struct {
	tx   *gorm.DB
	user *models.User
}

func (l *LedgerTx) UserID() uint { return l.user.ID }

// Cash reflects every AdjustCash applied so far in this unit.
func (l *LedgerTx) Cash() decimal.Decimal { return l.user.Cash }

// TradesFor returns the user's trades in symbol, oldest first.
func (l *LedgerTx) TradesFor(symbol string) ([]models.Trade, error) {
	var trades []models.Trade
	err := l.tx.Where("user_id = ? AND symbol = ?", l.user.ID, symbol).
		Order("executed_at ASC").Order("id ASC").
		Find(&trades).Error
	if err != nil {
		return nil, apperr.Storage(err, "load position")
	}
	return trades, nil
}

// AppendTrade inserts t for the unit's user. The row is only visible to other
// readers once the unit commits.
func (l *LedgerTx) AppendTrade(t *models.Trade) error {
	switch {
	case t.Symbol == "":
		return apperr.New(apperr.InvalidInput, "trade symbol is empty")
	case t.Shares <= 0:
		return apperr.New(apperr.InvalidInput, "trade shares must be positive, got %d", t.Shares)
	case !t.Price.IsPositive():
		return apperr.New(apperr.InvalidInput, "trade price must be positive, got %s", t.Price)
	case !t.Side.Valid():
		return apperr.New(apperr.InvalidInput, "unknown trade side %q", t.Side)
	}
	t.ID = 0
	t.UserID = l.user.ID
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = time.Now().UTC()
	}
	if err := l.tx.Create(t).Error; err != nil {
		return apperr.Storage(err, "append trade")
	}
	return nil
}

// AdjustCash adds delta to the user's cash. The balance may never go negative.
func (l *LedgerTx) AdjustCash(delta decimal.Decimal) error {
	next := l.user.Cash.Add(delta)
	if next.IsNegative() {
		return apperr.New(apperr.InsufficientFunds, "cash %s cannot cover %s", l.user.Cash, delta.Neg())
	}
	res := l.tx.Model(&models.User{}).Where("id = ?", l.user.ID).Update("cash", next)
	if res.Error != nil {
		return apperr.Storage(res.Error, "adjust cash")
	}
	if res.RowsAffected != 1 {
		return apperr.New(apperr.StorageFailure, "adjust cash: %d rows updated for user %d", res.RowsAffected, l.user.ID)
	}
	l.user.Cash = next
	return nil
}

package portfolio

import (
	"context"

	"stocks-ledger/database"
	"stocks-ledger/models"
	"stocks-ledger/quote"

	"github.com/shopspring/decimal"
)

// Position is a holding valued at the current quote.
type Position struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Total  decimal.Decimal `json:"total"`
}

type Summary struct {
	Positions  []Position      `json:"positions"`
	Cash       decimal.Decimal `json:"cash"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

type Service struct {
	store  *database.Store
	quotes quote.Provider
}

func NewService(store *database.Store, quotes quote.Provider) *Service {
	return &Service{store: store, quotes: quotes}
}

// Holdings returns userID's open positions ordered by symbol.
func (s *Service) Holdings(ctx context.Context, userID uint) ([]models.Holding, error) {
	trades, err := s.store.TradesFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Fold(trades), nil
}

// Summary values every open position at its current quote. Cash and holdings
// come from the same ledger snapshot.
func (s *Service) Summary(ctx context.Context, userID uint) (*Summary, error) {
	cash, trades, err := s.store.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &Summary{Positions: []Position{}, Cash: cash, GrandTotal: cash}
	for _, h := range Fold(trades) {
		q, err := s.quotes.Lookup(ctx, h.Symbol)
		if err != nil {
			return nil, err
		}
		total := q.Price.Mul(decimal.NewFromInt(h.Shares))
		out.Positions = append(out.Positions, Position{
			Symbol: h.Symbol,
			Name:   q.Name,
			Shares: h.Shares,
			Price:  q.Price,
			Total:  total,
		})
		out.GrandTotal = out.GrandTotal.Add(total)
	}
	return out, nil
}

// History returns every trade userID has made, newest first.
func (s *Service) History(ctx context.Context, userID uint) ([]models.Trade, error) {
	return s.store.TradesFor(ctx, userID)
}

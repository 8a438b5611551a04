// Package trading validates buy and sell requests and commits accepted trades
// to the ledger.
package trading

import (
	"context"
	"errors"
	"time"

	"stocks-ledger/apperr"
	"stocks-ledger/database"
	"stocks-ledger/metrics"
	"stocks-ledger/models"
	"stocks-ledger/portfolio"
	"stocks-ledger/quote"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const DefaultQuoteTimeout = 5 * time.Second

type Engine struct {
	store        *database.Store
	quotes       quote.Provider
	quoteTimeout time.Duration
	metrics      *metrics.Recorder
	now          func() time.Time
	log          *logrus.Entry
}

type Option func(*Engine)

func WithQuoteTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.quoteTimeout = d
		}
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine. quotes should not be a cached provider: every trade
// snapshots the price it fetched itself.
func New(store *database.Store, quotes quote.Provider, log *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		quotes:       quotes,
		quoteTimeout: DefaultQuoteTimeout,
		now:          time.Now,
		log:          log.WithField("component", "trading"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Buy purchases shares of symbol for userID at the current quote.
func (e *Engine) Buy(ctx context.Context, userID uint, symbol string, shares int64) (*models.Trade, error) {
	return e.execute(ctx, models.Buy, userID, symbol, shares)
}

// Sell disposes of shares of symbol held by userID at the current quote.
func (e *Engine) Sell(ctx context.Context, userID uint, symbol string, shares int64) (*models.Trade, error) {
	return e.execute(ctx, models.Sell, userID, symbol, shares)
}

// execute checks input shape, then resolves the symbol, then checks cash or
// position. The last check and the writes share one ledger unit.
func (e *Engine) execute(ctx context.Context, side models.Side, userID uint, symbol string, shares int64) (trade *models.Trade, err error) {
	symbol = quote.Normalize(symbol)
	fields := logrus.Fields{"user_id": userID, "symbol": symbol, "shares": shares, "side": side}
	defer func() {
		if err != nil {
			e.metrics.ObserveTrade(string(side), string(apperr.CodeOf(err)), 0)
			e.log.WithFields(fields).WithError(err).Info("trade rejected")
			return
		}
		e.metrics.ObserveTrade(string(side), "ok", trade.Amount().InexactFloat64())
		e.log.WithFields(fields).WithField("price", trade.Price.String()).Info("trade committed")
	}()

	if symbol == "" {
		return nil, apperr.New(apperr.InvalidInput, "symbol is required")
	}
	if shares <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "shares must be a positive integer, got %d", shares)
	}

	q, err := e.lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}
	price := q.Price.Round(models.PriceScale)
	if !price.IsPositive() {
		return nil, apperr.New(apperr.QuoteUnavailable, "quote for %s rounds to %s", symbol, price)
	}
	amount := price.Mul(decimal.NewFromInt(shares))

	t := &models.Trade{Symbol: symbol, Shares: shares, Price: price, Side: side}
	err = e.store.InUserTx(ctx, userID, func(tx *database.LedgerTx) error {
		var delta decimal.Decimal
		switch side {
		case models.Buy:
			if amount.GreaterThan(tx.Cash()) {
				return apperr.New(apperr.InsufficientFunds, "buying %d %s costs %s, cash is %s", shares, symbol, amount, tx.Cash())
			}
			delta = amount.Neg()
		case models.Sell:
			history, err := tx.TradesFor(symbol)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				return apperr.New(apperr.UnknownPosition, "no position in %s", symbol)
			}
			if held := portfolio.PositionOf(history, symbol); shares > held {
				return apperr.New(apperr.InsufficientShares, "selling %d %s, holding %d", shares, symbol, held)
			}
			delta = amount
		}

		t.ExecutedAt = e.now().UTC()
		if err := tx.AppendTrade(t); err != nil {
			return err
		}
		return tx.AdjustCash(delta)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// lookup fetches one quote under the engine's timeout. Anything other than a
// definite unknown symbol is reported as QuoteUnavailable.
func (e *Engine) lookup(ctx context.Context, symbol string) (models.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, e.quoteTimeout)
	defer cancel()

	type lookupResult struct {
		q   models.Quote
		err error
	}
	done := make(chan lookupResult, 1)
	start := time.Now()
	go func() {
		q, err := e.quotes.Lookup(ctx, symbol)
		done <- lookupResult{q, err}
	}()

	var (
		q   models.Quote
		err error
	)
	select {
	case r := <-done:
		q, err = r.q, r.err
	case <-ctx.Done():
		err = apperr.Wrap(ctx.Err(), apperr.QuoteUnavailable, "quote lookup timed out")
	}
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrUnknownSymbol), errors.Is(err, apperr.ErrQuoteUnavailable):
	default:
		err = apperr.Wrap(err, apperr.QuoteUnavailable, "quote lookup")
	}

	result := "ok"
	if err != nil {
		result = string(apperr.CodeOf(err))
	}
	e.metrics.ObserveQuote(result, time.Since(start))
	if err != nil {
		return models.Quote{}, err
	}
	return q, nil
}

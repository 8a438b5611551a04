// Package quote resolves ticker symbols to current prices.
package quote

import (
	"context"
	"fmt"
	"strings"

	"stocks-ledger/apperr"
	"stocks-ledger/models"

	"github.com/shopspring/decimal"
)

// Provider looks up the current quote for a symbol. Implementations return an
// error matching apperr.ErrUnknownSymbol when the symbol does not exist and
// one matching apperr.ErrQuoteUnavailable when they could not find out.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (models.Quote, error)
}

// Normalize trims and upper-cases a ticker symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Static serves quotes from a fixed table. It backs local development and tests.
type Static map[string]models.Quote

func (s Static) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return models.Quote{}, apperr.Wrap(err, apperr.QuoteUnavailable, "quote lookup")
	}
	q, ok := s[Normalize(symbol)]
	if !ok {
		return models.Quote{}, apperr.New(apperr.UnknownSymbol, "unknown symbol %q", symbol)
	}
	return q, nil
}

// ParseStatic reads a table written as "SYM=price[:Name],...", for example
// "AAPL=189.50:Apple Inc,MSFT=410".
func ParseStatic(table string) (Static, error) {
	out := Static{}
	for _, entry := range strings.Split(table, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		sym, rest, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("static quote %q: missing '='", entry)
		}
		priceStr, name, _ := strings.Cut(rest, ":")
		price, err := decimal.NewFromString(strings.TrimSpace(priceStr))
		if err != nil {
			return nil, fmt.Errorf("static quote %q: %w", entry, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("static quote %q: price must be positive", entry)
		}
		sym = Normalize(sym)
		name = strings.TrimSpace(name)
		if name == "" {
			name = sym
		}
		out[sym] = models.Quote{Symbol: sym, Name: name, Price: price}
	}
	return out, nil
}

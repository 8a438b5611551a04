package quote

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"stocks-ledger/apperr"
	"stocks-ledger/models"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const DefaultAlphaVantageURL = "https://www.alphavantage.co"

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol string `json:"1. symbol"`
		Name   string `json:"2. name"`
	} `json:"bestMatches"`
}

// AlphaVantage queries the Alpha Vantage GLOBAL_QUOTE endpoint for prices and
// SYMBOL_SEARCH for display names. Requests are never retried.
type AlphaVantage struct {
	client *resty.Client
	apiKey string
	log    *logrus.Entry
}

func NewAlphaVantage(baseURL, apiKey string, timeout time.Duration, log *logrus.Logger) *AlphaVantage {
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &AlphaVantage{
		client: client,
		apiKey: apiKey,
		log:    log.WithField("component", "alphavantage"),
	}
}

func (a *AlphaVantage) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = Normalize(symbol)

	var gq globalQuoteResponse
	if err := a.query(ctx, "GLOBAL_QUOTE", "symbol", symbol, &gq); err != nil {
		return models.Quote{}, apperr.Wrap(err, apperr.QuoteUnavailable, "alpha vantage quote")
	}
	switch {
	case gq.Note != "" || gq.Information != "":
		return models.Quote{}, apperr.New(apperr.QuoteUnavailable, "alpha vantage: %s", firstNonEmpty(gq.Note, gq.Information))
	case gq.ErrorMessage != "", gq.GlobalQuote.Price == "":
		return models.Quote{}, apperr.New(apperr.UnknownSymbol, "unknown symbol %q", symbol)
	}

	price, err := decimal.NewFromString(gq.GlobalQuote.Price)
	if err != nil {
		return models.Quote{}, apperr.Wrap(err, apperr.QuoteUnavailable, "alpha vantage price")
	}
	if !price.IsPositive() {
		return models.Quote{}, apperr.New(apperr.QuoteUnavailable, "alpha vantage returned non-positive price %s for %s", price, symbol)
	}

	return models.Quote{Symbol: symbol, Name: a.name(ctx, symbol), Price: price}, nil
}

// name falls back to the symbol when the search endpoint has no exact match.
func (a *AlphaVantage) name(ctx context.Context, symbol string) string {
	var sr symbolSearchResponse
	if err := a.query(ctx, "SYMBOL_SEARCH", "keywords", symbol, &sr); err != nil {
		a.log.WithError(err).WithField("symbol", symbol).Debug("symbol search failed")
		return symbol
	}
	for _, m := range sr.BestMatches {
		if strings.EqualFold(m.Symbol, symbol) && m.Name != "" {
			return m.Name
		}
	}
	return symbol
}

func (a *AlphaVantage) query(ctx context.Context, function, key, value string, out any) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": function,
			key:        value,
			"apikey":   a.apiKey,
		}).
		Get("/query")
	if err != nil {
		return errors.Wrapf(err, "%s request", function)
	}
	if resp.IsError() {
		return errors.Errorf("%s: http status %d", function, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "%s decode", function)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

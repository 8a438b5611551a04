package quote_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"stocks-ledger/apperr"
	"stocks-ledger/models"
	"stocks-ledger/quote"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestParseStatic(t *testing.T) {
	s, err := quote.ParseStatic("aapl=189.50:Apple Inc, MSFT=410 ,")
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, "Apple Inc", s["AAPL"].Name)
	assert.True(t, decimal.RequireFromString("189.5").Equal(s["AAPL"].Price))
	assert.Equal(t, "MSFT", s["MSFT"].Name)

	for _, bad := range []string{"AAPL", "AAPL=abc", "AAPL=0", "AAPL=-1"} {
		_, err := quote.ParseStatic(bad)
		assert.Error(t, err, bad)
	}
}

func TestStaticLookup(t *testing.T) {
	s := quote.Static{"NFLX": {Symbol: "NFLX", Name: "Netflix", Price: decimal.NewFromInt(500)}}

	q, err := s.Lookup(context.Background(), " nflx")
	require.NoError(t, err)
	assert.Equal(t, "Netflix", q.Name)

	_, err = s.Lookup(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, apperr.ErrUnknownSymbol)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Lookup(ctx, "NFLX")
	assert.ErrorIs(t, err, apperr.ErrQuoteUnavailable)
}

func alphaVantageServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestAlphaVantageLookup(t *testing.T) {
	url := alphaVantageServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "demo", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("function") {
		case "GLOBAL_QUOTE":
			assert.Equal(t, "IBM", r.URL.Query().Get("symbol"))
			fmt.Fprint(w, `{"Global Quote": {"01. symbol": "IBM", "05. price": "187.4300"}}`)
		case "SYMBOL_SEARCH":
			fmt.Fprint(w, `{"bestMatches": [
				{"1. symbol": "IBMN", "2. name": "Something Else"},
				{"1. symbol": "IBM", "2. name": "International Business Machines Corp"}
			]}`)
		default:
			t.Errorf("unexpected function %q", r.URL.Query().Get("function"))
		}
	})

	av := quote.NewAlphaVantage(url, "demo", time.Second, discard())
	q, err := av.Lookup(context.Background(), "ibm")
	require.NoError(t, err)
	assert.Equal(t, "IBM", q.Symbol)
	assert.Equal(t, "International Business Machines Corp", q.Name)
	assert.True(t, decimal.RequireFromString("187.43").Equal(q.Price))
}

func TestAlphaVantageNameFallsBackToSymbol(t *testing.T) {
	url := alphaVantageServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("function") == "SYMBOL_SEARCH" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"Global Quote": {"01. symbol": "XYZ", "05. price": "1.5"}}`)
	})

	q, err := quote.NewAlphaVantage(url, "k", time.Second, discard()).Lookup(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Equal(t, "XYZ", q.Name)
}

func TestAlphaVantageErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"empty quote", http.StatusOK, `{"Global Quote": {}}`, apperr.ErrUnknownSymbol},
		{"error message", http.StatusOK, `{"Error Message": "Invalid API call."}`, apperr.ErrUnknownSymbol},
		{"rate limited", http.StatusOK, `{"Note": "Thank you for using Alpha Vantage!"}`, apperr.ErrQuoteUnavailable},
		{"server error", http.StatusBadGateway, `oops`, apperr.ErrQuoteUnavailable},
		{"garbage", http.StatusOK, `not json`, apperr.ErrQuoteUnavailable},
		{"bad price", http.StatusOK, `{"Global Quote": {"05. price": "n/a"}}`, apperr.ErrQuoteUnavailable},
		{"zero price", http.StatusOK, `{"Global Quote": {"05. price": "0.0000"}}`, apperr.ErrQuoteUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url := alphaVantageServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})
			_, err := quote.NewAlphaVantage(url, "k", time.Second, discard()).Lookup(context.Background(), "ABC")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAlphaVantageTimeout(t *testing.T) {
	release := make(chan struct{})
	url := alphaVantageServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	_, err := quote.NewAlphaVantage(url, "k", 50*time.Millisecond, discard()).Lookup(context.Background(), "ABC")
	assert.ErrorIs(t, err, apperr.ErrQuoteUnavailable)
}

type countingProvider struct {
	calls atomic.Int32
	next  quote.Provider
}

func (c *countingProvider) Lookup(ctx context.Context, symbol string) (models.Quote, error) {
	c.calls.Add(1)
	return c.next.Lookup(ctx, symbol)
}

func TestCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	upstream := &countingProvider{next: quote.Static{
		"AAPL": {Symbol: "AAPL", Name: "Apple", Price: decimal.RequireFromString("189.25")},
	}}
	cached := quote.NewCached(upstream, rdb, time.Minute, discard())
	ctx := context.Background()

	first, err := cached.Lookup(ctx, "aapl")
	require.NoError(t, err)
	second, err := cached.Lookup(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(1), upstream.calls.Load())
	assert.True(t, first.Price.Equal(second.Price))
	assert.Equal(t, "Apple", second.Name)
	assert.True(t, mr.Exists("stock:AAPL:quote"))

	mr.FastForward(2 * time.Minute)
	_, err = cached.Lookup(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(2), upstream.calls.Load())

	_, err = cached.Lookup(ctx, "NOPE")
	assert.ErrorIs(t, err, apperr.ErrUnknownSymbol)
	assert.False(t, mr.Exists("stock:NOPE:quote"))
}

func TestCachedSurvivesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	cached := quote.NewCached(quote.Static{
		"AAPL": {Symbol: "AAPL", Name: "Apple", Price: decimal.NewFromInt(1)},
	}, rdb, time.Minute, discard())

	q, err := cached.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple", q.Name)
}

// Package metrics exposes Prometheus collectors for trades and quote lookups.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is safe for concurrent use. A nil *Recorder records nothing.
type Recorder struct {
	TradesTotal    *prometheus.CounterVec
	QuoteDuration  *prometheus.HistogramVec
	TradedNotional *prometheus.CounterVec
}

func New() *Recorder {
	return &Recorder{
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stocks_ledger",
			Name:      "trades_total",
			Help:      "Trade requests by side and result code.",
		}, []string{"side", "result"}),
		QuoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stocks_ledger",
			Name:      "quote_lookup_duration_seconds",
			Help:      "Quote provider latency by result code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		TradedNotional: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stocks_ledger",
			Name:      "traded_notional_total",
			Help:      "Cash value of committed trades by side.",
		}, []string{"side"}),
	}
}

// Register adds the collectors to reg.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{r.TradesTotal, r.QuoteDuration, r.TradedNotional} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveTrade counts one trade request. result is "ok" or an error code;
// notional is only added for committed trades.
func (r *Recorder) ObserveTrade(side, result string, notional float64) {
	if r == nil {
		return
	}
	r.TradesTotal.WithLabelValues(side, result).Inc()
	if result == "ok" {
		r.TradedNotional.WithLabelValues(side).Add(notional)
	}
}

func (r *Recorder) ObserveQuote(result string, took time.Duration) {
	if r == nil {
		return
	}
	r.QuoteDuration.WithLabelValues(result).Observe(took.Seconds())
}

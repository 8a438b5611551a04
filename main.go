package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stocks-ledger/accounts"
	"stocks-ledger/config"
	"stocks-ledger/database"
	"stocks-ledger/handlers"
	"stocks-ledger/metrics"
	"stocks-ledger/portfolio"
	"stocks-ledger/quote"
	"stocks-ledger/tokens"
	"stocks-ledger/trading"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := config.NewLogger(cfg)
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("database handle")
	}
	defer sqlDB.Close()

	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrate")
	}

	rdb, err := config.OpenRedis(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("redis")
	}
	defer rdb.Close()

	var upstream quote.Provider
	switch cfg.QuoteProvider {
	case "static":
		static, err := quote.ParseStatic(cfg.StaticQuotes)
		if err != nil {
			log.WithError(err).Fatal("static quotes")
		}
		upstream = static
	default:
		upstream = quote.NewAlphaVantage(cfg.AlphaVantageURL, cfg.AlphaVantageKey, cfg.QuoteTimeout, log)
	}

	initialCash, _ := cfg.InitialCash()
	rec := metrics.New()
	reg := prometheus.NewRegistry()
	if err := rec.Register(reg); err != nil {
		log.WithError(err).Fatal("metrics")
	}

	store := database.NewStore(db)
	display := quote.NewCached(upstream, rdb, cfg.QuoteCacheTTL, log)
	h := &handlers.Handler{
		Accounts:  accounts.NewRegistry(store, accounts.BcryptHasher{}, initialCash, log),
		Engine:    trading.New(store, upstream, log, trading.WithQuoteTimeout(cfg.QuoteTimeout), trading.WithMetrics(rec)),
		Portfolio: portfolio.NewService(store, display),
		Quotes:    display,
		Tokens:    tokens.NewIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, rdb),
		Log:       log,
	}

	server := &http.Server{Addr: ":" + cfg.Port, Handler: h.Router(reg)}
	go func() {
		log.WithField("port", cfg.Port).Info("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
	log.Info("shutdown complete")
}

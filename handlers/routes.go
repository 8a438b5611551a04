package handlers

import (
	"net/http"

	"stocks-ledger/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router mounts the public auth routes, the authenticated ledger routes and
// /metrics served from gatherer.
func (h *Handler) Router(gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(h.Log))

	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)
	router.POST("/refresh", h.Refresh)
	router.POST("/logout", h.Logout)
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	auth := router.Group("/")
	auth.Use(middleware.JWTAuth(h.Tokens))
	{
		auth.GET("/portfolio", h.GetPortfolio)
		auth.GET("/holdings", h.GetHoldings)
		auth.POST("/buy", h.Buy)
		auth.POST("/sell", h.Sell)
		auth.GET("/history", h.GetHistory)
		auth.GET("/prices/:symbol", h.GetStockPrice)
	}
	return router
}

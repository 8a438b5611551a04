package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type TradeInput struct {
	Symbol string `json:"symbol" binding:"required"`
	Shares int64  `json:"shares" binding:"required"`
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	summary, err := h.Portfolio.Summary(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetHoldings lists sellable symbols without pricing them.
func (h *Handler) GetHoldings(c *gin.Context) {
	holdings, err := h.Portfolio.Holdings(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, holdings)
}

func (h *Handler) Buy(c *gin.Context) {
	var input TradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	trade, err := h.Engine.Buy(c.Request.Context(), userID(c), input.Symbol, input.Shares)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

func (h *Handler) Sell(c *gin.Context) {
	var input TradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	trade, err := h.Engine.Sell(c.Request.Context(), userID(c), input.Symbol, input.Shares)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

func (h *Handler) GetHistory(c *gin.Context) {
	trades, err := h.Portfolio.History(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

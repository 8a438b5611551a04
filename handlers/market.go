package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetStockPrice(c *gin.Context) {
	q, err := h.Quotes.Lookup(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

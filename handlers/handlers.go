package handlers

import (
	"net/http"

	"stocks-ledger/accounts"
	"stocks-ledger/apperr"
	"stocks-ledger/portfolio"
	"stocks-ledger/quote"
	"stocks-ledger/tokens"
	"stocks-ledger/trading"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler serves the JSON API. Quotes is used for display only; trades get
// their prices through the engine's own provider.
type Handler struct {
	Accounts  *accounts.Registry
	Engine    *trading.Engine
	Portfolio *portfolio.Service
	Quotes    quote.Provider
	Tokens    *tokens.Issuer
	Log       *logrus.Logger
}

var statusByCode = map[apperr.Code]int{
	apperr.InvalidInput:       http.StatusBadRequest,
	apperr.UnknownSymbol:      http.StatusNotFound,
	apperr.UnknownPosition:    http.StatusUnprocessableEntity,
	apperr.InsufficientFunds:  http.StatusUnprocessableEntity,
	apperr.InsufficientShares: http.StatusUnprocessableEntity,
	apperr.DuplicateUsername:  http.StatusConflict,
	apperr.InvalidCredentials: http.StatusUnauthorized,
	apperr.QuoteUnavailable:   http.StatusServiceUnavailable,
	apperr.StorageFailure:     http.StatusInternalServerError,
}

// fail writes err as {"error", "code"}. Storage failures and unclassified
// errors are logged and reported without internal detail.
func (h *Handler) fail(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok || status == http.StatusInternalServerError {
		h.Log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "code": apperr.StorageFailure})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func userID(c *gin.Context) uint {
	return c.MustGet("user_id").(uint)
}

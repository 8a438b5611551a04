package handlers

import (
	"net/http"

	"stocks-ledger/tokens"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type SignupInput struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *Handler) Signup(c *gin.Context) {
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Password != input.Confirmation {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password and confirmation do not match"})
		return
	}

	id, err := h.Accounts.SignUp(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	pair, err := h.Tokens.Issue(c.Request.Context(), id)
	if err != nil {
		h.Log.WithError(err).Error("issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": id, "access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.Accounts.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	pair, err := h.Tokens.Issue(c.Request.Context(), id)
	if err != nil {
		h.Log.WithError(err).Error("issue tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) Refresh(c *gin.Context) {
	var input RefreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.Tokens.Refresh(c.Request.Context(), input.RefreshToken)
	switch {
	case errors.Is(err, tokens.ErrInvalidToken), errors.Is(err, tokens.ErrRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	case err != nil:
		h.Log.WithError(err).Error("refresh tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error refreshing token"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) Logout(c *gin.Context) {
	var input RefreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Tokens.Revoke(c.Request.Context(), input.RefreshToken); err != nil {
		h.Log.WithError(err).Error("revoke token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error revoking token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

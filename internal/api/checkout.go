package api

import (
	"errors"
	"net/http"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) beginCheckout(c *gin.Context) {
	co, err := h.checkout.Begin(c.Request.Context(), sessionID(c), currentUser(c))
	if err != nil {
		h.checkoutError(c, err)
		return
	}
	c.JSON(http.StatusCreated, co)
}

func (h *Handler) checkoutState(c *gin.Context) {
	co, ok := h.checkout.State(sessionID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No checkout in progress",
		})
		return
	}
	c.JSON(http.StatusOK, co)
}

// confirmCheckout blocks for the simulated payment delay
func (h *Handler) confirmCheckout(c *gin.Context) {
	co, err := h.checkout.Confirm(c.Request.Context(), sessionID(c))
	if err != nil {
		h.checkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, co)
}

func (h *Handler) cancelCheckout(c *gin.Context) {
	if err := h.checkout.Cancel(sessionID(c)); err != nil {
		h.checkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *Handler) closeCheckout(c *gin.Context) {
	next, err := h.checkout.Close(sessionID(c))
	if err != nil {
		h.checkoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect": next})
}

func (h *Handler) checkoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLoginRequired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":    "Please sign in to checkout",
			"redirect": service.LoginRoute,
		})
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
	case errors.Is(err, service.ErrNoCheckout):
		c.JSON(http.StatusNotFound, gin.H{"error": "No checkout in progress"})
	case errors.Is(err, service.ErrCheckoutLocked),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrCheckoutBusy):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Checkout cannot do that right now",
			"details": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to place order",
			"details": err.Error(),
		})
	}
}

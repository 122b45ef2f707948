package api

import (
	"errors"
	"net/http"

	"storefront/internal/gateway"
	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
)

// createCheckoutSession persists a pending order and returns the hosted
// checkout URL the client redirects to.
func (h *Handler) createCheckoutSession(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.checkoutService.CreateCheckoutSession(c.Request.Context(), currentUser(c).ID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cart references an unknown product"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// handleWebhook receives payment provider deliveries. Signature failures
// are the only rejection; anything else is acknowledged so the provider
// does not retry events we have already classified.
func (h *Handler) handleWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	sig := c.GetHeader(gateway.SignatureHeader)
	if err := h.checkoutService.HandleWebhook(c.Request.Context(), payload, sig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook signature verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

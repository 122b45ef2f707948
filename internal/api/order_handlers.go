package api

import (
	"errors"
	"net/http"

	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
)

// listMyOrders returns the caller's orders
func (h *Handler) listMyOrders(c *gin.Context) {
	orders, err := h.orderService.ListUserOrders(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder returns one order with its line items
func (h *Handler) getOrder(c *gin.Context) {
	detail, err := h.orderService.GetOrder(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not your order"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order"})
		}
		return
	}

	c.JSON(http.StatusOK, detail)
}

// listOrders returns every order. Admin only.
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// markOrderPaid settles a pending order outside the gateway. Admin only.
func (h *Handler) markOrderPaid(c *gin.Context) {
	updated, err := h.orderService.MarkPaidManually(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark order paid"})
		return
	}
	if !updated {
		c.JSON(http.StatusConflict, gin.H{"error": "Order not found or already paid"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order marked paid"})
}

// deleteOrder removes an order. Admin only.
func (h *Handler) deleteOrder(c *gin.Context) {
	err := h.orderService.DeleteOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

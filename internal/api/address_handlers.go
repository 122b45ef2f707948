package api

import (
	"errors"
	"net/http"

	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
)

// addressError maps address book failures onto HTTP responses
func addressError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this address book"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Address book operation failed"})
	}
}

// listAddresses returns a user's saved addresses
func (h *Handler) listAddresses(c *gin.Context) {
	addresses, err := h.userService.ListAddresses(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		addressError(c, err)
		return
	}

	c.JSON(http.StatusOK, addresses)
}

// addAddress saves a new address book entry
func (h *Handler) addAddress(c *gin.Context) {
	var req service.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	address, err := h.userService.AddAddress(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		addressError(c, err)
		return
	}

	c.JSON(http.StatusCreated, address)
}

// updateAddress replaces an address book entry
func (h *Handler) updateAddress(c *gin.Context) {
	var req service.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	address, err := h.userService.UpdateAddress(c.Request.Context(),
		currentUser(c), c.Param("id"), c.Param("addressId"), req)
	if err != nil {
		addressError(c, err)
		return
	}

	c.JSON(http.StatusOK, address)
}

// deleteAddress removes an address book entry
func (h *Handler) deleteAddress(c *gin.Context) {
	err := h.userService.DeleteAddress(c.Request.Context(),
		currentUser(c), c.Param("id"), c.Param("addressId"))
	if err != nil {
		addressError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Address has been deleted"})
}

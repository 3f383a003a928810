package api

import (
	"net/http"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) cartResponse(c *gin.Context, status int) {
	items := h.carts.Items(sessionID(c))
	c.JSON(status, gin.H{
		"items":   items,
		"summary": service.Summarize(items),
	})
}

func (h *Handler) getCart(c *gin.Context) {
	h.cartResponse(c, http.StatusOK)
}

// addCartItem adds one unit of a catalog product
func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, ok := h.catalog.Get(req.ProductID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	h.carts.Get(sessionID(c)).Add(product)
	h.cartResponse(c, http.StatusOK)
}

func (h *Handler) setCartQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	h.carts.Get(sessionID(c)).SetQuantity(c.Param("id"), req.Quantity)
	h.cartResponse(c, http.StatusOK)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	h.carts.Get(sessionID(c)).Remove(c.Param("id"))
	h.cartResponse(c, http.StatusOK)
}

func (h *Handler) clearCart(c *gin.Context) {
	h.carts.Clear(sessionID(c))
	h.cartResponse(c, http.StatusOK)
}

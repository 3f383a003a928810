package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
)

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type deleteConfirmRequest struct {
	Token string `json:"token" binding:"required"`
}

type describeRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type deliveryDateRequest struct {
	DeliveryDate time.Time `json:"delivery_date" binding:"required"`
}

func (h *Handler) adminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	session, err := h.admin.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrAdminCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to start admin session",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": session})
}

func (h *Handler) adminLogout(c *gin.Context) {
	if session := c.GetHeader(headerAdminSession); session != "" {
		if err := h.admin.Logout(c.Request.Context(), session); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to end admin session",
				"details": err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) createProduct(c *gin.Context) {
	var req models.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.admin.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create product",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var patch models.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	product, err := h.admin.UpdateProduct(c.Request.Context(), c.Param("id"), patch)
	if errors.Is(err, store.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update product",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) requestDelete(c *gin.Context) {
	req, err := h.admin.RequestDelete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrProductNotInCache) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to start delete",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, req)
}

// confirmDelete runs the optimistic delete; the catalog has already rolled
// back by the time an error reaches here
func (h *Handler) confirmDelete(c *gin.Context) {
	var req deleteConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	productID, err := h.admin.ConfirmDelete(c.Request.Context(), req.Token)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"status":     "Product deleted successfully",
			"product_id": productID,
		})
	case errors.Is(err, service.ErrDeleteTokenGone):
		c.JSON(http.StatusGone, gin.H{"error": "Delete confirmation expired"})
	case errors.Is(err, store.ErrProductInUse):
		c.JSON(http.StatusConflict, gin.H{"error": service.DeleteFailureMessage(err)})
	case errors.Is(err, store.ErrDeleteNotApplied):
		c.JSON(http.StatusForbidden, gin.H{"error": service.DeleteFailureMessage(err)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   service.DeleteFailureMessage(err),
			"details": err.Error(),
		})
	}
}

func (h *Handler) uploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing image file",
			"details": err.Error(),
		})
		return
	}
	if file.Size > service.MaxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "File too large. Please use an image under 2MB.",
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Unreadable upload",
			"details": err.Error(),
		})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxImageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Unreadable upload",
			"details": err.Error(),
		})
		return
	}

	url, err := h.admin.UploadImage(data)
	if errors.Is(err, service.ErrImageTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "File too large. Please use an image under 2MB.",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"url":     url,
			"warning": "Image upload failed. Using placeholder.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) stockImages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"images": service.StockImages()})
}

func (h *Handler) describeProduct(c *gin.Context) {
	var req describeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	desc, err := h.admin.GenerateDescription(c.Request.Context(), req.Name, req.Category)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"description": desc})
	case errors.Is(err, service.ErrDescribeInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a name and category first."})
	case errors.Is(err, service.ErrAIUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": aiErrorMessage(err)})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   aiErrorMessage(err),
			"details": err.Error(),
		})
	}
}

func (h *Handler) adminOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": h.admin.Orders()})
}

func (h *Handler) adminStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.admin.Stats())
}

func (h *Handler) setOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	err := h.admin.SetOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	h.orderUpdateResponse(c, err)
}

func (h *Handler) setDeliveryDate(c *gin.Context) {
	var req deliveryDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	err := h.admin.SetDeliveryDate(c.Param("id"), req.DeliveryDate)
	h.orderUpdateResponse(c, err)
}

func (h *Handler) orderUpdateResponse(c *gin.Context, err error) {
	switch {
	case err == nil:
		order, _ := h.ledger.Get(c.Param("id"))
		c.JSON(http.StatusOK, order)
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order status"})
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update order",
			"details": err.Error(),
		})
	}
}

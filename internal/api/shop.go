package api

import (
	"errors"
	"net/http"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": service.Categories()})
}

// listProducts serves the shop grid. A failed catalog refresh is reported in
// "error" alongside the cached products rather than failing the request.
func (h *Handler) listProducts(c *gin.Context) {
	products := h.catalog.Products()
	filter := service.ProductFilter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
	}

	resp := gin.H{"loading": h.catalog.Loading()}

	if c.Query("ai") == "1" && filter.Query != "" && h.ai != nil {
		rec, err := h.ai.SearchProducts(c.Request.Context(), filter.Query, products)
		if err != nil {
			h.logger.Warn("AI search failed, falling back to text search", zap.Error(err))
			resp["ai_error"] = aiErrorMessage(err)
		} else {
			filter.Recommendation = rec
			resp["recommendation"] = rec
		}
	}

	resp["products"] = service.FilterProducts(products, filter)
	if err := h.catalog.Err(); err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, ok := h.catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
		"related": service.RelatedProducts(h.catalog.Products(), product),
	})
}

func aiErrorMessage(err error) string {
	if errors.Is(err, service.ErrAIUnavailable) {
		return "AI assistant is not configured"
	}
	return "AI assistant is unavailable right now"
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/service"
)

// HandleListProducts handles GET /v1/products?ids=1,2,3 — the same batched
// read the stock verifier uses.
func HandleListProducts(catalog service.CatalogAPI, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("ids")
		if raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ids query parameter is required"})
			return
		}

		parts := strings.Split(raw, ",")
		ids := make([]int, 0, len(parts))
		for _, part := range parts {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id: " + part})
				return
			}
			ids = append(ids, id)
		}

		products, err := catalog.ListProductsByIDs(c.Request.Context(), ids)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": products})
	}
}

// HandleGetProduct handles GET /v1/products/:id
func HandleGetProduct(catalog service.CatalogAPI, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		product, err := catalog.GetProduct(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": product})
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"communitycart/market/internal/services"
)

// RestConfigHandler handles requests for the /config REST endpoint.
type RestConfigHandler struct {
	catalogService services.ICatalogService
}

// NewRestConfigHandler creates a new RestConfigHandler.
func NewRestConfigHandler(catalogService services.ICatalogService) *RestConfigHandler {
	return &RestConfigHandler{catalogService: catalogService}
}

// GetPublicConfig returns the marketplace catalog shown to shoppers.
// Handles GET /v1/config
func (h *RestConfigHandler) GetPublicConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogService.Catalog(c.Request.Context()))
}

// ReloadCatalog asks every instance to re-read the catalog file.
// Handles POST /v1/admin/config/reload
func (h *RestConfigHandler) ReloadCatalog(c *gin.Context) {
	if err := h.catalogService.PublishReload(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload catalog"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "reloading"})
}

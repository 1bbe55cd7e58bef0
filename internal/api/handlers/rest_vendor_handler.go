package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"communitycart/market/internal/services"
)

// RestVendorHandler serves vendor dashboards.
type RestVendorHandler struct {
	analytics services.IVendorAnalyticsService
}

func NewRestVendorHandler(analytics services.IVendorAnalyticsService) *RestVendorHandler {
	return &RestVendorHandler{analytics: analytics}
}

// GetVendorAnalytics handles GET /v1/vendor/:vendor_id/analytics
func (h *RestVendorHandler) GetVendorAnalytics(c *gin.Context) {
	summary, err := h.analytics.Summary(c.Request.Context(), c.Param("vendor_id"))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute vendor analytics"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

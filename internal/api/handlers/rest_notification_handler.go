package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"communitycart/market/internal/models"
	"communitycart/market/internal/notify"
	"communitycart/market/internal/services"
)

// RestNotificationHandler lets admins manage notification templates.
type RestNotificationHandler struct {
	templates services.INotificationTemplateService
}

func NewRestNotificationHandler(templates services.INotificationTemplateService) *RestNotificationHandler {
	return &RestNotificationHandler{templates: templates}
}

type templateRequest struct {
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

func localeParam(c *gin.Context) string {
	return c.DefaultQuery("locale", services.DefaultLocale)
}

// GetTemplate handles GET /v1/admin/notification/:kind
func (h *RestNotificationHandler) GetTemplate(c *gin.Context) {
	tmpl, err := h.templates.GetTemplate(c.Request.Context(), notify.Kind(c.Param("kind")), localeParam(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// SaveTemplate handles PUT /v1/admin/notification/:kind
func (h *RestNotificationHandler) SaveTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject and body are required"})
		return
	}
	kind := notify.Kind(c.Param("kind"))
	if !notify.IsKnownKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown notification kind"})
		return
	}

	tmpl := &models.NotificationTemplate{Kind: string(kind), Locale: localeParam(c), Subject: req.Subject, Body: req.Body}
	// Reject templates that would fail at send time.
	if err := notify.CheckTemplate(tmpl.Subject, tmpl.Body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.templates.SaveTemplate(c.Request.Context(), tmpl); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save template"})
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// DeleteTemplate handles DELETE /v1/admin/notification/:kind
func (h *RestNotificationHandler) DeleteTemplate(c *gin.Context) {
	if err := h.templates.DeleteTemplate(c.Request.Context(), notify.Kind(c.Param("kind")), localeParam(c)); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template"})
		return
	}
	c.Status(http.StatusNoContent)
}

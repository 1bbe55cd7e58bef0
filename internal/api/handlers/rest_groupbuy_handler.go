package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"communitycart/market/internal/api/middleware"
	"communitycart/market/internal/groupbuy"
	"communitycart/market/internal/notify"
	"communitycart/market/internal/services"
	"communitycart/market/internal/storage"
	"communitycart/market/internal/tasks"
)

// RestGroupBuyHandler handles REST requests for group-buy listings.
type RestGroupBuyHandler struct {
	marketplace services.IMarketplaceService
	storage     storage.IS3Storage
	taskClient  tasks.IAsynqClient
}

// NewRestGroupBuyHandler creates a new RestGroupBuyHandler. storageService
// may be nil when uploads are not configured.
func NewRestGroupBuyHandler(marketplace services.IMarketplaceService, storageService storage.IS3Storage, taskClient tasks.IAsynqClient) *RestGroupBuyHandler {
	return &RestGroupBuyHandler{marketplace: marketplace, storage: storageService, taskClient: taskClient}
}

type joinRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

type imageUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

type imageCompleteRequest struct {
	Key string `json:"key" binding:"required"`
}

// SearchGroupBuys handles GET /v1/groupbuy/search
func (h *RestGroupBuyHandler) SearchGroupBuys(c *gin.Context) {
	criteria := groupbuy.DefaultCriteria()
	if err := c.ShouldBindQuery(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search parameters"})
		return
	}

	result, err := h.marketplace.Search(c.Request.Context(), criteria)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search group buys"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": services.NewListingViews(result)})
}

// GetGroupBuy handles GET /v1/groupbuy/:id
func (h *RestGroupBuyHandler) GetGroupBuy(c *gin.Context) {
	evaluated, err := h.marketplace.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group buy not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve group buy"})
		}
		return
	}
	c.JSON(http.StatusOK, services.NewListingView(*evaluated))
}

// CreateGroupBuy handles POST /v1/groupbuy
func (h *RestGroupBuyHandler) CreateGroupBuy(c *gin.Context) {
	var in services.NewGroupBuy
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := in.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.VendorID = c.GetString(middleware.ContextKeyUserID)
	in.ContactEmail = c.GetString(middleware.ContextKeyEmail)

	listing, err := h.marketplace.Create(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group buy"})
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// JoinGroupBuy handles POST /v1/groupbuy/:id/join
func (h *RestGroupBuyHandler) JoinGroupBuy(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}

	ctx := c.Request.Context()
	order, evaluated, err := h.marketplace.Join(ctx, c.Param("id"), c.GetString(middleware.ContextKeyUserID), req.Quantity)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": "Group buy not found"})
		return
	case errors.Is(err, services.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrNotJoinable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join group buy"})
		return
	}

	if email := c.GetString(middleware.ContextKeyEmail); email != "" && h.taskClient != nil {
		task, err := tasks.NewNotifyTask(tasks.NotifyTaskPayload{
			To:   email,
			Kind: notify.KindJoinConfirmation,
			Data: map[string]interface{}{
				"title":    evaluated.Listing.Title,
				"quantity": order.Quantity,
				"progress": int(math.Round(evaluated.Classification.DisplayProgress())),
			},
		})
		if err == nil {
			_, err = h.taskClient.EnqueueContext(ctx, task)
		}
		if err != nil {
			// The order stands; only the confirmation is lost.
			log.Error().Err(err).Str("order", order.ID).Msg("failed to enqueue join confirmation")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":     order,
		"group_buy": services.NewListingView(*evaluated),
	})
}

// DeleteGroupBuy handles DELETE /v1/groupbuy/:id
func (h *RestGroupBuyHandler) DeleteGroupBuy(c *gin.Context) {
	err := h.marketplace.Delete(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextKeyUserID))
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		c.JSON(http.StatusNotFound, gin.H{"error": "Group buy not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own group buys"})
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete group buy"})
	default:
		c.Status(http.StatusNoContent)
	}
}

// RequestImageUpload handles POST /v1/groupbuy/:id/image
func (h *RestGroupBuyHandler) RequestImageUpload(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}
	var req imageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename and content_type are required"})
		return
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_type must be an image type"})
		return
	}

	listingID, ok := h.ownedListing(c)
	if !ok {
		return
	}

	url, key, err := h.storage.GeneratePresignedPutURL(c.Request.Context(), c.GetString(middleware.ContextKeyUserID), listingID, req.Filename, req.ContentType)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare upload"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload_url": url, "key": key, "expires_in": int(storage.PresignExpiry.Seconds())})
}

// CompleteImageUpload handles POST /v1/groupbuy/:id/image/complete
func (h *RestGroupBuyHandler) CompleteImageUpload(c *gin.Context) {
	if h.storage == nil || h.taskClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}
	var req imageCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	listingID, ok := h.ownedListing(c)
	if !ok {
		return
	}
	if !strings.HasPrefix(req.Key, storage.UploadPrefix(c.GetString(middleware.ContextKeyUserID), listingID)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key does not belong to this group buy"})
		return
	}

	task, err := tasks.NewImageProcessTask(tasks.ImageTaskPayload{S3Key: req.Key, ListingID: listingID})
	if err == nil {
		_, err = h.taskClient.EnqueueContext(c.Request.Context(), task)
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue image processing"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "processing"})
}

// ownedListing loads the :id listing and checks the caller is its vendor.
// It writes the error response itself when ok is false.
func (h *RestGroupBuyHandler) ownedListing(c *gin.Context) (string, bool) {
	evaluated, err := h.marketplace.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group buy not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve group buy"})
		}
		return "", false
	}
	if evaluated.Listing.VendorID != c.GetString(middleware.ContextKeyUserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only manage images for your own group buys"})
		return "", false
	}
	return evaluated.Listing.ID, true
}

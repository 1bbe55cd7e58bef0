package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"communitycart/market/internal/api/handlers"
	"communitycart/market/internal/api/middleware"
	"communitycart/market/internal/groupbuy"
	"communitycart/market/internal/models"
	"communitycart/market/internal/services"
	"communitycart/market/internal/storage"
	"communitycart/market/internal/tasks"
)

var handlerNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

// asUser stands in for AuthMiddleware in handler tests.
func asUser(userID, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		if email != "" {
			c.Set(middleware.ContextKeyEmail, email)
		}
		c.Next()
	}
}

func evaluated(l *models.Listing) *groupbuy.Evaluated {
	return &groupbuy.Evaluated{Listing: l, Classification: groupbuy.Classify(l, handlerNow)}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func setupGroupBuyRouter(h *handlers.RestGroupBuyHandler, userID, email string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/groupbuy/search", h.SearchGroupBuys)
	r.GET("/v1/groupbuy/:id", h.GetGroupBuy)
	authed := r.Group("/v1", asUser(userID, email))
	authed.POST("/groupbuy", h.CreateGroupBuy)
	authed.POST("/groupbuy/:id/join", h.JoinGroupBuy)
	authed.DELETE("/groupbuy/:id", h.DeleteGroupBuy)
	authed.POST("/groupbuy/:id/image", h.RequestImageUpload)
	authed.POST("/groupbuy/:id/image/complete", h.CompleteImageUpload)
	return r
}

// --- Tests ---

func TestRestGroupBuyHandler_Search_BindsCriteria(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, nil, nil), "", "")

	deadline := handlerNow.Add(48 * time.Hour)
	listing := &models.Listing{ID: "gb1", Title: "Dish Soap", CurrentQuantity: 15, TargetQuantity: 10, Deadline: &deadline}
	expected := groupbuy.DefaultCriteria()
	expected.Search = "soap"
	expected.Status = "closing-soon"
	expected.Sort = "deadline"
	mockMarket.On("Search", mock.Anything, expected).Return([]groupbuy.Evaluated{*evaluated(listing)}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/groupbuy/search?q=soap&status=closing-soon&sort=deadline", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "gb1", resp.Data[0]["id"])
	assert.Equal(t, 100.0, resp.Data[0]["progress_percent"])
	assert.Equal(t, false, resp.Data[0]["joinable"])
	mockMarket.AssertExpectations(t)
}

func TestRestGroupBuyHandler_Search_ServiceError(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, nil, nil), "", "")
	mockMarket.On("Search", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/groupbuy/search", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRestGroupBuyHandler_Get_NotFound(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, nil, nil), "", "")
	mockMarket.On("Get", mock.Anything, "missing").Return(nil, mongo.ErrNoDocuments)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/groupbuy/missing", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var respBody map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Contains(t, respBody["error"], "Group buy not found")
}

func TestRestGroupBuyHandler_Create_SetsVendorFromToken(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, nil, nil), "vendor-1", "v@example.com")

	mockMarket.On("Create", mock.Anything, mock.MatchedBy(func(in services.NewGroupBuy) bool {
		return in.VendorID == "vendor-1" && in.ContactEmail == "v@example.com" && in.Title == "Olive Oil"
	})).Return(&models.Listing{ID: "gb1", Title: "Olive Oil"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/groupbuy", jsonBody(t, map[string]interface{}{
		"vendor_name": "Green Grocer", "title": "Olive Oil", "region": "Toronto",
		"category": "food", "price": 18.5, "target_quantity": 20,
	}))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockMarket.AssertExpectations(t)
}

func TestRestGroupBuyHandler_Create_Invalid(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, nil, nil), "vendor-1", "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/groupbuy", jsonBody(t, map[string]interface{}{
		"vendor_name": "Green Grocer", "title": "Olive Oil", "region": "Toronto", "category": "food",
		"target_quantity": 0,
	}))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockMarket.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRestGroupBuyHandler_Join_EnqueuesConfirmation(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	mockClient := new(MockAsynqClient)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, nil, mockClient), "shopper-1", "s@example.com")

	listing := &models.Listing{ID: "gb1", Title: "Rice", CurrentQuantity: 6, TargetQuantity: 10}
	order := &models.Order{ID: "o1", ProductID: "gb1", UserID: "shopper-1", Quantity: 2}
	mockMarket.On("Join", mock.Anything, "gb1", "shopper-1", 2).Return(order, evaluated(listing), nil)
	mockClient.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		var p tasks.NotifyTaskPayload
		return task.Type() == tasks.TypeNotifyDeliver &&
			json.Unmarshal(task.Payload(), &p) == nil &&
			p.To == "s@example.com" && p.Data["progress"] == float64(60)
	})).Return(&asynq.TaskInfo{ID: "t1"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/groupbuy/gb1/join", jsonBody(t, map[string]int{"quantity": 2}))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockMarket.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestRestGroupBuyHandler_Join_EnqueueFailureKeepsOrder(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	mockClient := new(MockAsynqClient)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, nil, mockClient), "shopper-1", "s@example.com")

	listing := &models.Listing{ID: "gb1", Title: "Rice", TargetQuantity: 10}
	mockMarket.On("Join", mock.Anything, "gb1", "shopper-1", 1).Return(&models.Order{ID: "o1", Quantity: 1}, evaluated(listing), nil)
	mockClient.On("EnqueueContext", mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/groupbuy/gb1/join", jsonBody(t, map[string]int{"quantity": 1}))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRestGroupBuyHandler_Join_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", mongo.ErrNoDocuments, http.StatusNotFound},
		{"not joinable", services.ErrNotJoinable, http.StatusConflict},
		{"bad quantity", services.ErrInvalidQuantity, http.StatusBadRequest},
		{"db error", assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockMarket := new(MockMarketplaceService)
			r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, nil, nil), "shopper-1", "")
			mockMarket.On("Join", mock.Anything, "gb1", "shopper-1", 3).Return(nil, nil, tc.err)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/v1/groupbuy/gb1/join", jsonBody(t, map[string]int{"quantity": 3}))
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestRestGroupBuyHandler_Join_MissingQuantity(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, nil, nil), "shopper-1", "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/groupbuy/gb1/join", jsonBody(t, map[string]int{}))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockMarket.AssertNotCalled(t, "Join", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRestGroupBuyHandler_Delete(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, nil, nil), "vendor-1", "")
	mockMarket.On("Delete", mock.Anything, "gb1", "vendor-1").Return(nil)
	mockMarket.On("Delete", mock.Anything, "gb2", "vendor-1").Return(services.ErrForbidden)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/v1/groupbuy/gb1", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/v1/groupbuy/gb2", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRestGroupBuyHandler_RequestImageUpload(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	mockStorage := new(MockS3Storage)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, mockStorage, nil), "vendor-1", "")

	mockMarket.On("Get", mock.Anything, "gb1").Return(evaluated(&models.Listing{ID: "gb1", VendorID: "vendor-1"}), nil)
	mockMarket.On("Get", mock.Anything, "gb2").Return(evaluated(&models.Listing{ID: "gb2", VendorID: "someone-else"}), nil)
	mockStorage.On("GeneratePresignedPutURL", mock.Anything, "vendor-1", "gb1", "rice.png", "image/png").
		Return("https://s3.example.com/put", "uploads/vendor-1/gb1/x_rice.png", nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/groupbuy/gb1/image", jsonBody(t, map[string]string{"filename": "rice.png", "content_type": "image/png"}))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var respBody map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, "https://s3.example.com/put", respBody["upload_url"])
	assert.Equal(t, "uploads/vendor-1/gb1/x_rice.png", respBody["key"])

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/v1/groupbuy/gb2/image", jsonBody(t, map[string]string{"filename": "rice.png", "content_type": "image/png"}))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/v1/groupbuy/gb1/image", jsonBody(t, map[string]string{"filename": "notes.txt", "content_type": "text/plain"}))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRestGroupBuyHandler_RequestImageUpload_NoStorage(t *testing.T) {
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(new(MockMarketplaceService), nil, nil), "vendor-1", "")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/groupbuy/gb1/image", jsonBody(t, map[string]string{"filename": "a.png", "content_type": "image/png"}))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRestGroupBuyHandler_CompleteImageUpload_NoStorage(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	mockClient := new(MockAsynqClient)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, nil, mockClient), "vendor-1", "")

	key := storage.UploadPrefix("vendor-1", "gb1") + "abc_rice.png"
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/groupbuy/gb1/image/complete", jsonBody(t, map[string]string{"key": key}))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	mockClient.AssertNotCalled(t, "EnqueueContext", mock.Anything, mock.Anything)
	mockMarket.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestRestGroupBuyHandler_CompleteImageUpload(t *testing.T) {
	mockMarket := new(MockMarketplaceService)
	mockClient := new(MockAsynqClient)
	r := setupGroupBuyRouter(handlers.NewRestGroupBuyHandler(mockMarket, new(MockS3Storage), mockClient), "vendor-1", "")

	mockMarket.On("Get", mock.Anything, "gb1").Return(evaluated(&models.Listing{ID: "gb1", VendorID: "vendor-1"}), nil)
	goodKey := storage.UploadPrefix("vendor-1", "gb1") + "abc_rice.png"
	mockClient.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		var p tasks.ImageTaskPayload
		return task.Type() == tasks.TypeImageProcess &&
			json.Unmarshal(task.Payload(), &p) == nil && p.S3Key == goodKey && p.ListingID == "gb1"
	})).Return(&asynq.TaskInfo{ID: "t1"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/groupbuy/gb1/image/complete", jsonBody(t, map[string]string{"key": goodKey}))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/v1/groupbuy/gb1/image/complete", jsonBody(t, map[string]string{"key": "uploads/other/gb9/x.png"}))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockClient.AssertNumberOfCalls(t, "EnqueueContext", 1)
}

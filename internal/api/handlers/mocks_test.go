package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"communitycart/market/internal/groupbuy"
	"communitycart/market/internal/models"
	"communitycart/market/internal/notify"
	"communitycart/market/internal/services"
)

// --- Mocks ---

// MockMarketplaceService
type MockMarketplaceService struct {
	mock.Mock
}

func (m *MockMarketplaceService) Search(ctx context.Context, c groupbuy.Criteria) ([]groupbuy.Evaluated, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]groupbuy.Evaluated), args.Error(1)
}

func (m *MockMarketplaceService) Get(ctx context.Context, id string) (*groupbuy.Evaluated, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*groupbuy.Evaluated), args.Error(1)
}

func (m *MockMarketplaceService) Join(ctx context.Context, id, userID string, qty int) (*models.Order, *groupbuy.Evaluated, error) {
	args := m.Called(ctx, id, userID, qty)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Order), args.Get(1).(*groupbuy.Evaluated), args.Error(2)
}

func (m *MockMarketplaceService) Create(ctx context.Context, in services.NewGroupBuy) (*models.Listing, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockMarketplaceService) Delete(ctx context.Context, id, vendorID string) error {
	return m.Called(ctx, id, vendorID).Error(0)
}

func (m *MockMarketplaceService) Snapshot(ctx context.Context) ([]*models.Listing, []*models.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]*models.Listing), args.Get(1).([]*models.Order), args.Error(2)
}

// MockS3Storage
type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, vendorID, listingID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, vendorID, listingID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockS3Storage) GetObject(ctx context.Context, key string, maxBytes int64) ([]byte, string, error) {
	args := m.Called(ctx, key, maxBytes)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockS3Storage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

// MockAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

// MockCatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Catalog(ctx context.Context) *models.Catalog {
	return m.Called(ctx).Get(0).(*models.Catalog)
}

func (m *MockCatalogService) Load(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalogService) SubscribeToChanges(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalogService) PublishReload(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockVendorAnalyticsService
type MockVendorAnalyticsService struct {
	mock.Mock
}

func (m *MockVendorAnalyticsService) Summary(ctx context.Context, vendor string) (*services.VendorSummary, error) {
	args := m.Called(ctx, vendor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.VendorSummary), args.Error(1)
}

// MockNotificationTemplateService
type MockNotificationTemplateService struct {
	mock.Mock
}

func (m *MockNotificationTemplateService) GetTemplate(ctx context.Context, kind notify.Kind, locale string) (*models.NotificationTemplate, error) {
	args := m.Called(ctx, kind, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationTemplate), args.Error(1)
}

func (m *MockNotificationTemplateService) SaveTemplate(ctx context.Context, tmpl *models.NotificationTemplate) error {
	return m.Called(ctx, tmpl).Error(0)
}

func (m *MockNotificationTemplateService) DeleteTemplate(ctx context.Context, kind notify.Kind, locale string) error {
	return m.Called(ctx, kind, locale).Error(0)
}

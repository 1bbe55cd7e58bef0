package tasks_test

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"communitycart/market/internal/models"
	"communitycart/market/internal/notify"
	"communitycart/market/internal/services"
)

// --- Mocks ---

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg *notify.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) GetTemplate(ctx context.Context, kind notify.Kind, locale string) (*models.NotificationTemplate, error) {
	args := m.Called(ctx, kind, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NotificationTemplate), args.Error(1)
}

func (m *MockTemplateService) SaveTemplate(ctx context.Context, tmpl *models.NotificationTemplate) error {
	return m.Called(ctx, tmpl).Error(0)
}

func (m *MockTemplateService) DeleteTemplate(ctx context.Context, kind notify.Kind, locale string) error {
	return m.Called(ctx, kind, locale).Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GeneratePresignedPutURL(ctx context.Context, vendorID, listingID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, vendorID, listingID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorage) GetObject(ctx context.Context, key string, maxBytes int64) ([]byte, string, error) {
	args := m.Called(ctx, key, maxBytes)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockStorage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

type MockGroupBuyService struct {
	mock.Mock
}

func (m *MockGroupBuyService) CreateGroupBuy(ctx context.Context, in services.NewGroupBuy) (*models.Listing, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockGroupBuyService) FindGroupBuyByID(ctx context.Context, id string) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockGroupBuyService) ListGroupBuys(ctx context.Context) ([]*models.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Listing), args.Error(1)
}

func (m *MockGroupBuyService) ListGroupBuysByVendor(ctx context.Context, vendorID string) ([]*models.Listing, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Listing), args.Error(1)
}

func (m *MockGroupBuyService) IncrementQuantity(ctx context.Context, id string, qty int) (*models.Listing, error) {
	args := m.Called(ctx, id, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockGroupBuyService) AddImageToGroupBuy(ctx context.Context, id, imageKey string) error {
	return m.Called(ctx, id, imageKey).Error(0)
}

func (m *MockGroupBuyService) DeleteGroupBuy(ctx context.Context, id, vendorID string) error {
	return m.Called(ctx, id, vendorID).Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, productID, userID string, qty int, unitPrice float64) (*models.Order, error) {
	args := m.Called(ctx, productID, userID, qty, unitPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context) ([]*models.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrderService) ListOrdersForProducts(ctx context.Context, productIDs []string) ([]*models.Order, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Order), args.Error(1)
}

// MockAsynqClient records enqueued tasks. Fail, when set, decides the error
// returned for the n-th enqueue (zero-based).
type MockAsynqClient struct {
	Tasks []*asynq.Task
	Fail  func(n int) error
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	n := len(m.Tasks)
	m.Tasks = append(m.Tasks, task)
	if m.Fail != nil {
		if err := m.Fail(n); err != nil {
			return nil, err
		}
	}
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", n), Type: task.Type()}, nil
}

package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"communitycart/market/internal/models"
)

// MockGroupBuyService
type MockGroupBuyService struct {
	mock.Mock
}

func (m *MockGroupBuyService) CreateGroupBuy(ctx context.Context, in NewGroupBuy) (*models.Listing, error) {
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

// MockOrderService
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

// MockSnapshotCache
type MockSnapshotCache struct {
	mock.Mock
}

func (m *MockSnapshotCache) GetListings(ctx context.Context) ([]*models.Listing, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]*models.Listing), args.Bool(1), args.Error(2)
}

func (m *MockSnapshotCache) SetListings(ctx context.Context, generation int64, listings []*models.Listing) error {
	return m.Called(ctx, generation, listings).Error(0)
}

func (m *MockSnapshotCache) GetOrders(ctx context.Context) ([]*models.Order, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]*models.Order), args.Bool(1), args.Error(2)
}

func (m *MockSnapshotCache) SetOrders(ctx context.Context, generation int64, orders []*models.Order) error {
	return m.Called(ctx, generation, orders).Error(0)
}

func (m *MockSnapshotCache) Generation(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSnapshotCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

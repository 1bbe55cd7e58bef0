package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"communitycart/market/internal/db"
	"communitycart/market/internal/models"
)

// IOrderService defines the order operations the marketplace needs.
type IOrderService interface {
	CreateOrder(ctx context.Context, productID, userID string, qty int, unitPrice float64) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	ListOrdersForProducts(ctx context.Context, productIDs []string) ([]*models.Order, error)
}

type orderService struct {
	db *mongo.Database
}

// NewOrderService creates a new OrderService.
func NewOrderService(db *mongo.Database) IOrderService {
	return &orderService{db: db}
}

// CreateOrder inserts an order for qty units of productID.
func (s *orderService) CreateOrder(ctx context.Context, productID, userID string, qty int, unitPrice float64) (*models.Order, error) {
	collection := s.db.Collection(db.OrdersCollection)

	var order *models.Order
	operation := func() error {
		order = &models.Order{
			ID:        uuid.NewString(),
			ProductID: productID,
			UserID:    userID,
			Quantity:  qty,
			UnitPrice: unitPrice,
			CreatedAt: time.Now().UTC(),
		}
		_, err := collection.InsertOne(ctx, order)
		return err
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert order for group buy %s after multiple retries: %w", productID, err)
	}
	return order, nil
}

// ListOrders returns every order.
func (s *orderService) ListOrders(ctx context.Context) ([]*models.Order, error) {
	return s.find(ctx, bson.M{})
}

// ListOrdersForProducts returns orders referencing any of productIDs.
func (s *orderService) ListOrdersForProducts(ctx context.Context, productIDs []string) ([]*models.Order, error) {
	if len(productIDs) == 0 {
		return []*models.Order{}, nil
	}
	return s.find(ctx, bson.M{"product_id": bson.M{"$in": productIDs}})
}

func (s *orderService) find(ctx context.Context, filter bson.M) ([]*models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.db.Collection(db.OrdersCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer cur.Close(ctx)

	orders := []*models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

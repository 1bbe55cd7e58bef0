package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"communitycart/market/internal/db"
	"communitycart/market/internal/models"
)

// NewGroupBuy carries the vendor-supplied fields for a new listing.
type NewGroupBuy struct {
	VendorID       string     `json:"-"`
	ContactEmail   string     `json:"-"`
	VendorName     string     `json:"vendor_name" binding:"required"`
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description"`
	Region         string     `json:"region" binding:"required"`
	Category       string     `json:"category" binding:"required"`
	Price          float64    `json:"price"`
	TargetQuantity int        `json:"target_quantity"`
	Deadline       *time.Time `json:"deadline"`
}

// Validate checks the invariants the evaluator relies on.
func (n NewGroupBuy) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if n.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if n.TargetQuantity < 1 {
		return fmt.Errorf("target_quantity must be at least 1")
	}
	return nil
}

// IGroupBuyService defines the persistence operations for group-buy listings.
type IGroupBuyService interface {
	CreateGroupBuy(ctx context.Context, in NewGroupBuy) (*models.Listing, error)
	FindGroupBuyByID(ctx context.Context, id string) (*models.Listing, error)
	ListGroupBuys(ctx context.Context) ([]*models.Listing, error)
	ListGroupBuysByVendor(ctx context.Context, vendorID string) ([]*models.Listing, error)
	IncrementQuantity(ctx context.Context, id string, qty int) (*models.Listing, error)
	AddImageToGroupBuy(ctx context.Context, id, imageKey string) error
	DeleteGroupBuy(ctx context.Context, id, vendorID string) error
}

// groupBuyService implements IGroupBuyService.
type groupBuyService struct {
	db *mongo.Database
}

// NewGroupBuyService creates a new GroupBuyService.
func NewGroupBuyService(db *mongo.Database) IGroupBuyService {
	return &groupBuyService{db: db}
}

// CreateGroupBuy inserts a new listing with zero committed quantity.
func (s *groupBuyService) CreateGroupBuy(ctx context.Context, in NewGroupBuy) (*models.Listing, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	collection := s.db.Collection(db.GroupBuysCollection)
	now := time.Now().UTC()

	var listing *models.Listing
	operation := func() error {
		listing = &models.Listing{
			ID:              uuid.NewString(),
			VendorID:        in.VendorID,
			VendorName:      in.VendorName,
			ContactEmail:    in.ContactEmail,
			Title:           in.Title,
			Description:     in.Description,
			Region:          in.Region,
			Category:        in.Category,
			Price:           in.Price,
			CurrentQuantity: 0,
			TargetQuantity:  in.TargetQuantity,
			Deadline:        in.Deadline,
			Images:          []string{},
			CreatedAt:       &now,
			UpdatedAt:       now,
		}
		_, err := collection.InsertOne(ctx, listing)
		return err
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert group buy for vendor %s after multiple retries: %w", in.VendorName, err)
	}
	return listing, nil
}

// FindGroupBuyByID returns a non-deleted listing or mongo.ErrNoDocuments.
func (s *groupBuyService) FindGroupBuyByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(db.GroupBuysCollection).FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding group buy %s: %w", id, err)
	}
	return &listing, nil
}

// ListGroupBuys returns every non-deleted listing in insertion order.
func (s *groupBuyService) ListGroupBuys(ctx context.Context) ([]*models.Listing, error) {
	return s.find(ctx, bson.M{"deleted": false})
}

// ListGroupBuysByVendor returns the non-deleted listings owned by vendorID.
func (s *groupBuyService) ListGroupBuysByVendor(ctx context.Context, vendorID string) ([]*models.Listing, error) {
	return s.find(ctx, bson.M{"vendor_id": vendorID, "deleted": false})
}

func (s *groupBuyService) find(ctx context.Context, filter bson.M) ([]*models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.db.Collection(db.GroupBuysCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query group buys: %w", err)
	}
	defer cur.Close(ctx)

	listings := []*models.Listing{}
	if err := cur.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode group buys: %w", err)
	}
	return listings, nil
}

// IncrementQuantity adds qty committed units and returns the updated listing.
func (s *groupBuyService) IncrementQuantity(ctx context.Context, id string, qty int) (*models.Listing, error) {
	update := bson.M{
		"$inc": bson.M{"current_quantity": qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Listing
	err := s.db.Collection(db.GroupBuysCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id, "deleted": false}, update, opts).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to increment quantity on group buy %s: %w", id, err)
	}
	return &updated, nil
}

// AddImageToGroupBuy records a processed image key on the listing.
func (s *groupBuyService) AddImageToGroupBuy(ctx context.Context, id, imageKey string) error {
	update := bson.M{
		"$addToSet": bson.M{"images": imageKey},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := s.db.Collection(db.GroupBuysCollection).UpdateOne(ctx, bson.M{"_id": id, "deleted": false}, update)
	if err != nil {
		return fmt.Errorf("db error adding image %s to group buy %s: %w", imageKey, id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("group buy %s not found when adding image: %w", id, mongo.ErrNoDocuments)
	}
	if result.ModifiedCount == 0 {
		log.Debug().Str("group_buy", id).Str("key", imageKey).Msg("image key already recorded")
	}
	return nil
}

// DeleteGroupBuy soft-deletes a listing owned by vendorID.
func (s *groupBuyService) DeleteGroupBuy(ctx context.Context, id, vendorID string) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"deleted": true, "deleted_at": now, "updated_at": now}}
	collection := s.db.Collection(db.GroupBuysCollection)

	result, err := collection.UpdateOne(ctx, bson.M{"_id": id, "vendor_id": vendorID, "deleted": false}, update)
	if err != nil {
		return fmt.Errorf("db error deleting group buy %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		var existing models.Listing
		err := collection.FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&existing)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return mongo.ErrNoDocuments
		}
		if err != nil {
			return fmt.Errorf("db error checking group buy %s: %w", id, err)
		}
		return fmt.Errorf("group buy %s does not belong to vendor %s: %w", id, vendorID, ErrForbidden)
	}
	return nil
}

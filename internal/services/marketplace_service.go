package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"communitycart/market/internal/cache"
	"communitycart/market/internal/config"
	"communitycart/market/internal/groupbuy"
	"communitycart/market/internal/models"
)

// ListingView is the JSON shape of an evaluated listing.
type ListingView struct {
	*models.Listing
	ProgressPercent float64           `json:"progress_percent"`
	DaysLeft        *int              `json:"days_left"`
	Statuses        []groupbuy.Status `json:"statuses"`
	Joinable        bool              `json:"joinable"`
}

// NewListingView flattens an evaluated listing for rendering.
func NewListingView(e groupbuy.Evaluated) ListingView {
	return ListingView{
		Listing:         e.Listing,
		ProgressPercent: e.Classification.DisplayProgress(),
		DaysLeft:        e.Classification.DaysLeft,
		Statuses:        e.Classification.Tags,
		Joinable:        e.Classification.Joinable(),
	}
}

// NewListingViews converts a result list, preserving order.
func NewListingViews(evaluated []groupbuy.Evaluated) []ListingView {
	out := make([]ListingView, len(evaluated))
	for i, e := range evaluated {
		out[i] = NewListingView(e)
	}
	return out
}

// IMarketplaceService is the read and join surface of the marketplace.
type IMarketplaceService interface {
	Search(ctx context.Context, c groupbuy.Criteria) ([]groupbuy.Evaluated, error)
	Get(ctx context.Context, id string) (*groupbuy.Evaluated, error)
	Join(ctx context.Context, id, userID string, qty int) (*models.Order, *groupbuy.Evaluated, error)
	Create(ctx context.Context, in NewGroupBuy) (*models.Listing, error)
	Delete(ctx context.Context, id, vendorID string) error
	Snapshot(ctx context.Context) ([]*models.Listing, []*models.Order, error)
}

type marketplaceService struct {
	groupBuys IGroupBuyService
	orders    IOrderService
	cache     cache.ISnapshotCache
	cfg       *config.Config
	clock     func() time.Time
}

// NewMarketplaceService wires the marketplace. snapshots may be nil to load
// straight from the database; clock may be nil to use time.Now.
func NewMarketplaceService(groupBuys IGroupBuyService, orders IOrderService, snapshots cache.ISnapshotCache, cfg *config.Config, clock func() time.Time) IMarketplaceService {
	if clock == nil {
		clock = time.Now
	}
	return &marketplaceService{groupBuys: groupBuys, orders: orders, cache: snapshots, cfg: cfg, clock: clock}
}

// Search evaluates every live listing against c.
func (s *marketplaceService) Search(ctx context.Context, c groupbuy.Criteria) ([]groupbuy.Evaluated, error) {
	listings, orders, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return groupbuy.EvaluateWithBadges(listings, orders, c, s.clock()), nil
}

// Get classifies a single listing. Not found is mongo.ErrNoDocuments.
func (s *marketplaceService) Get(ctx context.Context, id string) (*groupbuy.Evaluated, error) {
	listing, err := s.groupBuys.FindGroupBuyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &groupbuy.Evaluated{Listing: listing, Classification: groupbuy.Classify(listing, s.clock())}, nil
}

// Join places an order for qty units if the listing still accepts orders.
func (s *marketplaceService) Join(ctx context.Context, id, userID string, qty int) (*models.Order, *groupbuy.Evaluated, error) {
	if qty < 1 || (s.cfg != nil && s.cfg.MaxJoinQuantity > 0 && qty > s.cfg.MaxJoinQuantity) {
		return nil, nil, ErrInvalidQuantity
	}

	listing, err := s.groupBuys.FindGroupBuyByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !groupbuy.Classify(listing, s.clock()).Joinable() {
		return nil, nil, ErrNotJoinable
	}

	order, err := s.orders.CreateOrder(ctx, listing.ID, userID, qty, listing.Price)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}
	updated, err := s.groupBuys.IncrementQuantity(ctx, listing.ID, qty)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update quantity after order %s: %w", order.ID, err)
	}
	s.invalidate(ctx)

	return order, &groupbuy.Evaluated{Listing: updated, Classification: groupbuy.Classify(updated, s.clock())}, nil
}

// Create stores a new listing and drops the cached snapshot.
func (s *marketplaceService) Create(ctx context.Context, in NewGroupBuy) (*models.Listing, error) {
	listing, err := s.groupBuys.CreateGroupBuy(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return listing, nil
}

// Delete soft-deletes a vendor's listing and drops the cached snapshot.
func (s *marketplaceService) Delete(ctx context.Context, id, vendorID string) error {
	if err := s.groupBuys.DeleteGroupBuy(ctx, id, vendorID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Snapshot returns the raw listing and order collections, from cache when warm.
func (s *marketplaceService) Snapshot(ctx context.Context) ([]*models.Listing, []*models.Order, error) {
	listings, err := s.loadListings(ctx)
	if err != nil {
		return nil, nil, err
	}
	orders, err := s.loadOrders(ctx)
	if err != nil {
		return nil, nil, err
	}
	return listings, orders, nil
}

func (s *marketplaceService) loadListings(ctx context.Context) ([]*models.Listing, error) {
	if s.cache != nil {
		listings, ok, err := s.cache.GetListings(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("snapshot cache read failed, loading listings from database")
		} else if ok {
			return listings, nil
		}
	}
	generation, cacheable := s.cacheGeneration(ctx)

	listings, err := s.groupBuys.ListGroupBuys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load group buys: %w", err)
	}
	if cacheable {
		if err := s.cache.SetListings(ctx, generation, listings); err != nil {
			log.Warn().Err(err).Msg("failed to cache listings snapshot")
		}
	}
	return listings, nil
}

func (s *marketplaceService) loadOrders(ctx context.Context) ([]*models.Order, error) {
	if s.cache != nil {
		orders, ok, err := s.cache.GetOrders(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("snapshot cache read failed, loading orders from database")
		} else if ok {
			return orders, nil
		}
	}
	generation, cacheable := s.cacheGeneration(ctx)

	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	if cacheable {
		if err := s.cache.SetOrders(ctx, generation, orders); err != nil {
			log.Warn().Err(err).Msg("failed to cache orders snapshot")
		}
	}
	return orders, nil
}

// cacheGeneration reports the snapshot generation to tag a database load
// with. A load is not cached when the generation cannot be read.
func (s *marketplaceService) cacheGeneration(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	generation, err := s.cache.Generation(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read snapshot generation, skipping cache fill")
		return 0, false
	}
	return generation, true
}

func (s *marketplaceService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate snapshot cache")
	}
}

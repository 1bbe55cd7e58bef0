package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"communitycart/market/internal/groupbuy"
)

// VendorSummary is the dashboard view of one vendor's group buys.
type VendorSummary struct {
	VendorID        string                  `json:"vendor_id"`
	VendorName      string                  `json:"vendor_name,omitempty"`
	Listings        int                     `json:"listings"`
	StatusCounts    map[groupbuy.Status]int `json:"status_counts"`
	Orders          int                     `json:"orders"`
	UnitsCommitted  int                     `json:"units_committed"`
	GrossOrderValue decimal.Decimal         `json:"gross_order_value"`
	AverageProgress decimal.Decimal         `json:"average_progress"`
	ByProgress      []ListingView           `json:"by_progress"`
}

type IVendorAnalyticsService interface {
	Summary(ctx context.Context, vendorID string) (*VendorSummary, error)
}

type vendorAnalyticsService struct {
	groupBuys IGroupBuyService
	orders    IOrderService
	clock     func() time.Time
}

func NewVendorAnalyticsService(groupBuys IGroupBuyService, orders IOrderService, clock func() time.Time) IVendorAnalyticsService {
	if clock == nil {
		clock = time.Now
	}
	return &vendorAnalyticsService{groupBuys: groupBuys, orders: orders, clock: clock}
}

// Summary aggregates the listings owned by vendorID and the orders placed
// against them. A vendor with no listings yields a zero summary, not an error.
func (s *vendorAnalyticsService) Summary(ctx context.Context, vendorID string) (*VendorSummary, error) {
	listings, err := s.groupBuys.ListGroupBuysByVendor(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listings for vendor %s: %w", vendorID, err)
	}

	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	orders, err := s.orders.ListOrdersForProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for vendor %s: %w", vendorID, err)
	}

	now := s.clock()
	summary := &VendorSummary{
		VendorID:        vendorID,
		Listings:        len(listings),
		StatusCounts:    map[groupbuy.Status]int{},
		Orders:          len(orders),
		GrossOrderValue: decimal.Zero,
		AverageProgress: decimal.Zero,
	}

	if len(listings) > 0 {
		summary.VendorName = listings[0].VendorName
	}

	progressSum := decimal.Zero
	for _, l := range listings {
		c := groupbuy.Classify(l, now)
		for _, tag := range c.Tags {
			summary.StatusCounts[tag]++
		}
		progressSum = progressSum.Add(decimal.NewFromFloat(c.DisplayProgress()))
	}
	if len(listings) > 0 {
		summary.AverageProgress = progressSum.Div(decimal.NewFromInt(int64(len(listings)))).Round(2)
	}

	for _, o := range orders {
		summary.UnitsCommitted += o.Quantity
		line := decimal.NewFromFloat(o.UnitPrice).Mul(decimal.NewFromInt(int64(o.Quantity)))
		summary.GrossOrderValue = summary.GrossOrderValue.Add(line)
	}
	summary.GrossOrderValue = summary.GrossOrderValue.Round(2)

	byProgress := groupbuy.Criteria{Sort: groupbuy.SortProgress}
	summary.ByProgress = NewListingViews(groupbuy.EvaluateWithBadges(listings, orders, byProgress, now))
	return summary, nil
}

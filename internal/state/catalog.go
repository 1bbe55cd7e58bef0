package state

import (
	"sync"

	"communitycart/market/internal/models"
)

// Catalog is an immutable snapshot of the listings and orders a view evaluates.
// Reducers build new slices rather than writing into an existing snapshot.
type Catalog struct {
	Listings []*models.Listing
	Orders   []*models.Order
}

// CatalogActionKind names a change to the catalog slice.
type CatalogActionKind string

const (
	ReplaceListings CatalogActionKind = "replace_listings"
	UpsertListing   CatalogActionKind = "upsert_listing"
	RemoveListing   CatalogActionKind = "remove_listing"
	ReplaceOrders   CatalogActionKind = "replace_orders"
	AddOrder        CatalogActionKind = "add_order"
)

// CatalogAction carries the payload for one catalog change. Only the fields
// relevant to Kind are read.
type CatalogAction struct {
	Kind      CatalogActionKind
	Listings  []*models.Listing
	Listing   *models.Listing
	ListingID string
	Orders    []*models.Order
	Order     *models.Order
}

// ReduceCatalog returns a new snapshot with a applied.
func ReduceCatalog(c Catalog, a CatalogAction) Catalog {
	switch a.Kind {
	case ReplaceListings:
		c.Listings = append([]*models.Listing(nil), a.Listings...)
	case UpsertListing:
		if a.Listing == nil || a.Listing.ID == "" {
			return c
		}
		next := make([]*models.Listing, 0, len(c.Listings)+1)
		replaced := false
		for _, l := range c.Listings {
			if l != nil && l.ID == a.Listing.ID {
				next = append(next, a.Listing)
				replaced = true
				continue
			}
			next = append(next, l)
		}
		if !replaced {
			next = append(next, a.Listing)
		}
		c.Listings = next
	case RemoveListing:
		next := make([]*models.Listing, 0, len(c.Listings))
		for _, l := range c.Listings {
			if l != nil && l.ID == a.ListingID {
				continue
			}
			next = append(next, l)
		}
		c.Listings = next
	case ReplaceOrders:
		c.Orders = append([]*models.Order(nil), a.Orders...)
	case AddOrder:
		if a.Order == nil {
			return c
		}
		next := make([]*models.Order, len(c.Orders), len(c.Orders)+1)
		copy(next, c.Orders)
		c.Orders = append(next, a.Order)
	}
	return c
}

// CatalogReader exposes the current catalog snapshot.
type CatalogReader interface {
	Catalog() Catalog
}

// CatalogSlice owns a Catalog snapshot.
type CatalogSlice struct {
	mu      sync.RWMutex
	current Catalog
}

func NewCatalogSlice(initial Catalog) *CatalogSlice {
	return &CatalogSlice{current: initial}
}

func (s *CatalogSlice) Catalog() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Dispatch applies a and returns the new snapshot.
func (s *CatalogSlice) Dispatch(a CatalogAction) Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ReduceCatalog(s.current, a)
	return s.current
}

package state

import (
	"time"

	"communitycart/market/internal/groupbuy"
)

// Store wires a criteria slice and a catalog slice into one view. Every
// dispatch to either slice triggers a full refresh of the view.
type Store struct {
	criteria *CriteriaSlice
	catalog  *CatalogSlice
	view     *View
}

// NewStore builds a store with the given initial criteria and an empty catalog.
func NewStore(initial groupbuy.Criteria, clock func() time.Time) *Store {
	criteria := NewCriteriaSlice(initial)
	catalog := NewCatalogSlice(Catalog{})
	return &Store{
		criteria: criteria,
		catalog:  catalog,
		view:     NewView(criteria, catalog, clock),
	}
}

func (s *Store) View() *View { return s.view }

func (s *Store) Criteria() groupbuy.Criteria { return s.criteria.Criteria() }

func (s *Store) Catalog() Catalog { return s.catalog.Catalog() }

// DispatchCriteria applies a to the criteria slice and refreshes the view.
func (s *Store) DispatchCriteria(a CriteriaAction) []groupbuy.Evaluated {
	s.criteria.Dispatch(a)
	return s.view.Refresh()
}

// DispatchCatalog applies a to the catalog slice and refreshes the view.
func (s *Store) DispatchCatalog(a CatalogAction) []groupbuy.Evaluated {
	s.catalog.Dispatch(a)
	return s.view.Refresh()
}

// Package state holds marketplace view state as independent slices. Each
// slice owns one piece of state and changes it only through a pure reducer;
// a View composes slices through reader interfaces and re-runs the group-buy
// pipeline whenever any of them changes.
package state

import (
	"sync"

	"communitycart/market/internal/groupbuy"
)

// CriteriaActionKind names a change to the criteria slice.
type CriteriaActionKind string

const (
	SetSearch     CriteriaActionKind = "set_search"
	SetRegion     CriteriaActionKind = "set_region"
	SetCategory   CriteriaActionKind = "set_category"
	SetPriceRange CriteriaActionKind = "set_price_range"
	SetStatus     CriteriaActionKind = "set_status"
	SetSort       CriteriaActionKind = "set_sort"
	ResetCriteria CriteriaActionKind = "reset"
)

// CriteriaAction is one user adjustment to the filter and sort selection.
type CriteriaAction struct {
	Kind  CriteriaActionKind
	Value string
}

// ReduceCriteria returns c with a applied. Unknown kinds return c unchanged.
func ReduceCriteria(c groupbuy.Criteria, a CriteriaAction) groupbuy.Criteria {
	switch a.Kind {
	case SetSearch:
		c.Search = a.Value
	case SetRegion:
		c.Region = a.Value
	case SetCategory:
		c.Category = a.Value
	case SetPriceRange:
		c.PriceRange = a.Value
	case SetStatus:
		c.Status = a.Value
	case SetSort:
		c.Sort = a.Value
	case ResetCriteria:
		c = groupbuy.DefaultCriteria()
	}
	return c
}

// CriteriaReader exposes the current criteria.
type CriteriaReader interface {
	Criteria() groupbuy.Criteria
}

// CriteriaSlice owns a Criteria value.
type CriteriaSlice struct {
	mu      sync.RWMutex
	current groupbuy.Criteria
}

// NewCriteriaSlice starts from initial.
func NewCriteriaSlice(initial groupbuy.Criteria) *CriteriaSlice {
	return &CriteriaSlice{current: initial}
}

// Criteria returns a copy of the current criteria.
func (s *CriteriaSlice) Criteria() groupbuy.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Dispatch applies a and returns the new criteria.
func (s *CriteriaSlice) Dispatch(a CriteriaAction) groupbuy.Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ReduceCriteria(s.current, a)
	return s.current
}

package state

import (
	"sync"
	"time"

	"communitycart/market/internal/groupbuy"
)

// Listener receives the full evaluated result after every recomputation.
type Listener func(result []groupbuy.Evaluated)

// View evaluates the catalog against the criteria it reads. It keeps no
// derived index: Refresh recomputes the whole result every time.
type View struct {
	criteria CriteriaReader
	catalog  CatalogReader
	clock    func() time.Time

	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
}

// NewView composes a view. A nil clock uses time.Now.
func NewView(criteria CriteriaReader, catalog CatalogReader, clock func() time.Time) *View {
	if clock == nil {
		clock = time.Now
	}
	return &View{
		criteria:  criteria,
		catalog:   catalog,
		clock:     clock,
		listeners: make(map[int]Listener),
	}
}

// Current evaluates the present state without notifying listeners.
func (v *View) Current() []groupbuy.Evaluated {
	c := v.catalog.Catalog()
	return groupbuy.EvaluateWithBadges(c.Listings, c.Orders, v.criteria.Criteria(), v.clock())
}

// Subscribe registers l and returns a function that removes it.
func (v *View) Subscribe(l Listener) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = l
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

// Refresh recomputes the result and hands it to every listener.
func (v *View) Refresh() []groupbuy.Evaluated {
	result := v.Current()
	v.mu.Lock()
	listeners := make([]Listener, 0, len(v.listeners))
	for _, l := range v.listeners {
		listeners = append(listeners, l)
	}
	v.mu.Unlock()
	for _, l := range listeners {
		l(result)
	}
	return result
}

package groupbuy

import (
	"time"

	"communitycart/market/internal/models"
)

// Evaluate runs the full pipeline: filter, then sort. The result never aliases
// the listings slice and is never nil.
func Evaluate(listings []*models.Listing, orders []*models.Order, c Criteria, now time.Time) []*models.Listing {
	filtered := Filter(listings, c, now)
	return Sort(filtered, c.Sort, orders, now)
}

// Evaluated pairs a listing with its classification for rendering badges.
type Evaluated struct {
	Listing        *models.Listing
	Classification Classification
}

// EvaluateWithBadges is Evaluate plus a classification of every result at now.
func EvaluateWithBadges(listings []*models.Listing, orders []*models.Order, c Criteria, now time.Time) []Evaluated {
	ordered := Evaluate(listings, orders, c, now)
	out := make([]Evaluated, len(ordered))
	for i, l := range ordered {
		out[i] = Evaluated{Listing: l, Classification: Classify(l, now)}
	}
	return out
}

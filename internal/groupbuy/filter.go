package groupbuy

import (
	"strings"
	"time"

	"communitycart/market/internal/models"
)

// Filter returns the listings that satisfy every active criterion, in input order.
// Nil listings and listings without an ID are always dropped.
func Filter(listings []*models.Listing, c Criteria, now time.Time) []*models.Listing {
	out := make([]*models.Listing, 0, len(listings))
	search := strings.ToLower(c.Search)
	for _, l := range listings {
		if Include(l, c, search, now) {
			out = append(out, l)
		}
	}
	return out
}

// Include decides a single listing. search must already be lower-cased.
func Include(l *models.Listing, c Criteria, search string, now time.Time) bool {
	if l == nil || l.ID == "" {
		return false
	}
	if search != "" && !matchesSearch(l, search) {
		return false
	}
	if constrained(c.Region) && l.Region != c.Region {
		return false
	}
	if constrained(c.Category) && l.Category != c.Category {
		return false
	}
	if constrained(c.PriceRange) && !InPriceRange(l.Price, c.PriceRange) {
		return false
	}
	if constrained(c.Status) && !Classify(l, now).Matches(c.Status) {
		return false
	}
	return true
}

func matchesSearch(l *models.Listing, search string) bool {
	return strings.Contains(strings.ToLower(l.Title), search) ||
		strings.Contains(strings.ToLower(l.Description), search) ||
		strings.Contains(strings.ToLower(l.VendorName), search)
}

// InPriceRange reports bucket membership for price. Unknown buckets admit any price.
func InPriceRange(price float64, bucket string) bool {
	switch bucket {
	case PriceUnder25:
		return price < 25
	case Price25To50:
		return price >= 25 && price <= 50
	case Price50To100:
		return price >= 50 && price <= 100
	case Price100To200:
		return price >= 100 && price <= 200
	case PriceOver200:
		return price > 200
	default:
		return true
	}
}

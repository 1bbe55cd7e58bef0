package groupbuy

import (
	"sort"
	"time"

	"communitycart/market/internal/models"
)

// PopularityCounts counts orders per listing ID.
func PopularityCounts(orders []*models.Order) map[string]int {
	counts := make(map[string]int, len(orders))
	for _, o := range orders {
		if o == nil || o.ProductID == "" {
			continue
		}
		counts[o.ProductID]++
	}
	return counts
}

// Sort returns a stably ordered copy of listings. Unknown keys keep the input order.
// Nil entries sort as a listing with every field unset.
func Sort(listings []*models.Listing, key string, orders []*models.Order, now time.Time) []*models.Listing {
	out := make([]*models.Listing, len(listings))
	copy(out, listings)

	var less func(a, b *models.Listing) bool
	switch key {
	case SortPopularity:
		counts := PopularityCounts(orders)
		less = func(a, b *models.Listing) bool { return counts[a.ID] > counts[b.ID] }
	case SortDeadline:
		less = func(a, b *models.Listing) bool { return epochMillis(a.Deadline) < epochMillis(b.Deadline) }
	case SortPriceLow:
		less = func(a, b *models.Listing) bool { return a.Price < b.Price }
	case SortPriceHigh:
		less = func(a, b *models.Listing) bool { return a.Price > b.Price }
	case SortProgress:
		progress := make(map[*models.Listing]float64, len(out))
		for _, l := range out {
			progress[orEmpty(l)] = Classify(l, now).ProgressPercent
		}
		less = func(a, b *models.Listing) bool { return progress[a] > progress[b] }
	case SortNewest:
		less = func(a, b *models.Listing) bool { return epochMillis(a.CreatedAt) > epochMillis(b.CreatedAt) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(orEmpty(out[i]), orEmpty(out[j])) })
	return out
}

var emptyListing models.Listing

func orEmpty(l *models.Listing) *models.Listing {
	if l == nil {
		return &emptyListing
	}
	return l
}

// epochMillis treats a missing timestamp as the Unix epoch.
func epochMillis(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

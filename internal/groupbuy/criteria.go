// Package groupbuy evaluates group-buy listings against marketplace criteria:
// it filters, classifies progress and deadlines, and orders the result.
//
// Every function here is pure. Inputs are read, never modified, and each call
// recomputes its answer from scratch.
package groupbuy

// All is the criteria value meaning "no constraint" for region, category,
// price range and status.
const All = "all"

// Price range buckets. The middle buckets are inclusive on both ends, so 50
// and 100 each belong to two adjacent buckets.
const (
	PriceUnder25  = "under-25"
	Price25To50   = "25-50"
	Price50To100  = "50-100"
	Price100To200 = "100-200"
	PriceOver200  = "over-200"
)

// Sort keys.
const (
	SortPopularity = "popularity"
	SortDeadline   = "deadline"
	SortPriceLow   = "price-low"
	SortPriceHigh  = "price-high"
	SortProgress   = "progress"
	SortNewest     = "newest"
)

// Criteria is the user-adjustable filter and sort selection for one evaluation.
// An empty string in any filter field behaves like All; an empty Sort leaves
// the filtered order untouched.
type Criteria struct {
	Search     string `json:"search" form:"q"`
	Region     string `json:"region" form:"region"`
	Category   string `json:"category" form:"category"`
	PriceRange string `json:"price_range" form:"price_range"`
	Status     string `json:"status" form:"status"`
	Sort       string `json:"sort" form:"sort"`
}

// DefaultCriteria returns the criteria a fresh marketplace view starts with.
func DefaultCriteria() Criteria {
	return Criteria{
		Region:     All,
		Category:   All,
		PriceRange: All,
		Status:     All,
		Sort:       SortPopularity,
	}
}

// PriceRanges lists the recognised price buckets in display order.
func PriceRanges() []string {
	return []string{PriceUnder25, Price25To50, Price50To100, Price100To200, PriceOver200}
}

// SortKeys lists the recognised sort keys, default first.
func SortKeys() []string {
	return []string{SortPopularity, SortDeadline, SortPriceLow, SortPriceHigh, SortProgress, SortNewest}
}

func constrained(v string) bool {
	return v != "" && v != All
}

package models

// Catalog lists the enum values the marketplace UI offers for filtering and sorting.
type Catalog struct {
	AppName     string   `yaml:"app_name" json:"app_name"`
	Regions     []string `yaml:"regions" json:"regions"`
	Categories  []string `yaml:"categories" json:"categories"`
	PriceRanges []string `yaml:"price_ranges" json:"price_ranges"`
	Statuses    []string `yaml:"statuses" json:"statuses"`
	SortKeys    []string `yaml:"sort_keys" json:"sort_keys"`
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"communitycart/market/internal/groupbuy"
	"communitycart/market/internal/models"
)

// DefaultCatalog returns the built-in regions and categories, with every
// price range, status and sort key the evaluator recognises.
func DefaultCatalog(appName string) *models.Catalog {
	return &models.Catalog{
		AppName:     appName,
		Regions:     []string{"Toronto", "Hamilton", "Niagara"},
		Categories:  []string{"food", "household", "beauty"},
		PriceRanges: groupbuy.PriceRanges(),
		Statuses:    groupbuy.FilterStatuses(),
		SortKeys:    groupbuy.SortKeys(),
	}
}

// LoadCatalog reads a YAML catalog file. An empty path returns DefaultCatalog.
// Lists missing from the file fall back to the defaults.
func LoadCatalog(path, appName string) (*models.Catalog, error) {
	def := DefaultCatalog(appName)
	if path == "" {
		return def, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var cat models.Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	if cat.AppName == "" {
		cat.AppName = def.AppName
	}
	if len(cat.Regions) == 0 {
		cat.Regions = def.Regions
	}
	if len(cat.Categories) == 0 {
		cat.Categories = def.Categories
	}
	if len(cat.PriceRanges) == 0 {
		cat.PriceRanges = def.PriceRanges
	}
	if len(cat.Statuses) == 0 {
		cat.Statuses = def.Statuses
	}
	if len(cat.SortKeys) == 0 {
		cat.SortKeys = def.SortKeys
	}
	return &cat, nil
}

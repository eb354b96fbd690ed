package services

import (
	"slices"

	"dataco-dashboard/internal/models"
)

// ApplyFilters keeps orders whose market is in markets and whose shipping
// date falls inside dr, preserving input order. An empty market set or an
// inverted range yields no rows.
func ApplyFilters(orders []models.Order, markets []string, dr models.DateRange) []models.Order {
	if len(markets) == 0 || !dr.Valid() {
		return []models.Order{}
	}

	allowed := make(map[string]struct{}, len(markets))
	for _, m := range markets {
		allowed[m] = struct{}{}
	}

	filtered := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if _, ok := allowed[o.Market]; !ok {
			continue
		}
		if !dr.Contains(o.ShippingDate) {
			continue
		}
		filtered = append(filtered, o)
	}
	return filtered
}

// DefaultSelection selects every market present in orders and the full
// span of their shipping dates.
func DefaultSelection(orders []models.Order) models.Selection {
	seen := make(map[string]struct{})
	markets := []string{}
	var dr models.DateRange

	for i, o := range orders {
		if o.Market != "" {
			if _, ok := seen[o.Market]; !ok {
				seen[o.Market] = struct{}{}
				markets = append(markets, o.Market)
			}
		}
		d := models.Date(o.ShippingDate)
		if i == 0 || d.Before(dr.Start) {
			dr.Start = d
		}
		if i == 0 || d.After(dr.End) {
			dr.End = d
		}
	}
	slices.Sort(markets)

	return models.Selection{Markets: markets, Range: dr}
}

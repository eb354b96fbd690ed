package services

import (
	"cmp"
	"slices"

	"dataco-dashboard/internal/models"
)

// TopCategoriesBySegment ranks categories by order count within each
// customer segment and keeps the top limit per segment. Segments are
// ascending; equal counts keep the order in which categories first appear.
func TopCategoriesBySegment(orders []models.Order, limit int) []models.SegmentCategory {
	type key struct{ segment, category string }
	index := make(map[key]int)
	bySegment := make(map[string][]models.SegmentCategory)

	for _, o := range orders {
		k := key{o.Segment, o.Category}
		i, ok := index[k]
		if !ok {
			i = len(bySegment[o.Segment])
			index[k] = i
			bySegment[o.Segment] = append(bySegment[o.Segment], models.SegmentCategory{
				Segment:  o.Segment,
				Category: o.Category,
			})
		}
		bySegment[o.Segment][i].OrderCount++
	}

	var out []models.SegmentCategory
	for _, segment := range sortedKeys(bySegment) {
		ranked := bySegment[segment]
		slices.SortStableFunc(ranked, func(a, b models.SegmentCategory) int {
			return cmp.Compare(b.OrderCount, a.OrderCount)
		})
		out = append(out, head(ranked, limit)...)
	}
	return out
}

// ProfitBySegment sums non-null profit per customer segment, highest first.
func ProfitBySegment(orders []models.Order) []models.SegmentProfit {
	totals := make(map[string]float64)
	for _, o := range orders {
		if !o.Profit.Valid {
			continue
		}
		totals[o.Segment] += o.Profit.Float64
	}

	out := make([]models.SegmentProfit, 0, len(totals))
	for _, segment := range sortedKeys(totals) {
		out = append(out, models.SegmentProfit{Segment: segment, TotalProfit: totals[segment]})
	}
	slices.SortStableFunc(out, func(a, b models.SegmentProfit) int {
		return cmp.Compare(b.TotalProfit, a.TotalProfit)
	})
	return out
}

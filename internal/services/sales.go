package services

import (
	"cmp"
	"math"
	"slices"

	"dataco-dashboard/internal/models"
)

// LossByMarket sums the magnitude of negative profits per market, smallest
// loss first. Markets without a loss are absent.
func LossByMarket(orders []models.Order) []models.MarketAmount {
	return sumByMarket(orders, func(p float64) (float64, bool) {
		return math.Abs(p), p < 0
	})
}

// ProfitByMarket sums positive profits per market, smallest first.
func ProfitByMarket(orders []models.Order) []models.MarketAmount {
	return sumByMarket(orders, func(p float64) (float64, bool) {
		return p, p > 0
	})
}

func sumByMarket(orders []models.Order, pick func(float64) (float64, bool)) []models.MarketAmount {
	totals := make(map[string]float64)
	for _, o := range orders {
		if !o.Profit.Valid {
			continue
		}
		if v, ok := pick(o.Profit.Float64); ok {
			totals[o.Market] += v
		}
	}

	out := make([]models.MarketAmount, 0, len(totals))
	for _, market := range sortedKeys(totals) {
		out = append(out, models.MarketAmount{Market: market, Amount: totals[market]})
	}
	slices.SortStableFunc(out, func(a, b models.MarketAmount) int {
		return cmp.Compare(a.Amount, b.Amount)
	})
	return out
}

// productTotals sums profit per product in product-name order. Null profits
// are skipped.
func productTotals(orders []models.Order) []models.ProductProfit {
	totals := make(map[string]float64)
	for _, o := range orders {
		if _, ok := totals[o.ProductName]; !ok {
			totals[o.ProductName] = 0
		}
		if o.Profit.Valid {
			totals[o.ProductName] += o.Profit.Float64
		}
	}

	out := make([]models.ProductProfit, 0, len(totals))
	for _, name := range sortedKeys(totals) {
		out = append(out, models.ProductProfit{ProductName: name, TotalProfit: totals[name]})
	}
	return out
}

// TopProductsByProfit returns the limit products with the largest positive
// total profit, largest first.
func TopProductsByProfit(orders []models.Order, limit int) []models.ProductProfit {
	totals := productTotals(orders)
	out := slices.DeleteFunc(totals, func(p models.ProductProfit) bool {
		return p.TotalProfit <= 0
	})
	slices.SortStableFunc(out, func(a, b models.ProductProfit) int {
		return cmp.Compare(b.TotalProfit, a.TotalProfit)
	})
	return head(out, limit)
}

// TopProductsByLoss returns the limit products with the most negative total
// profit, biggest loss first.
func TopProductsByLoss(orders []models.Order, limit int) []models.ProductProfit {
	totals := productTotals(orders)
	out := slices.DeleteFunc(totals, func(p models.ProductProfit) bool {
		return p.TotalProfit >= 0
	})
	slices.SortStableFunc(out, func(a, b models.ProductProfit) int {
		return cmp.Compare(a.TotalProfit, b.TotalProfit)
	})
	return head(out, limit)
}

package services

import (
	"cmp"
	"slices"

	"dataco-dashboard/internal/models"
)

// StatusPaymentCrossTab counts orders per status and payment type. The row
// axis is exactly statuses, in that order; orders with any other status
// are dropped. Payment columns are ascending.
func StatusPaymentCrossTab(orders []models.Order, statuses []string) models.Pivot {
	rowOf := make(map[string]int, len(statuses))
	for i, s := range statuses {
		rowOf[s] = i
	}

	type cell struct {
		row     int
		payment string
	}
	counts := make(map[cell]int)
	payments := make(map[string]struct{})
	for _, o := range orders {
		row, ok := rowOf[o.Status]
		if !ok {
			continue
		}
		counts[cell{row, o.PaymentType}]++
		payments[o.PaymentType] = struct{}{}
	}

	cols := sortedKeys(payments)
	rows := make([]models.PivotRow, len(statuses))
	for i, status := range statuses {
		rows[i] = models.PivotRow{Key: status, Counts: make([]int, len(cols))}
		for j, p := range cols {
			rows[i].Counts[j] = counts[cell{i, p}]
		}
	}

	return models.Pivot{RowLabel: "order_status", Columns: cols, Rows: rows}
}

// LateRateByRegion reports total orders, late orders (by lateness flag) and
// the late percentage per region, highest rate first.
func LateRateByRegion(orders []models.Order) []models.RegionRisk {
	groups := make(map[string]*models.RegionRisk)
	for _, o := range orders {
		r, ok := groups[o.Region]
		if !ok {
			r = &models.RegionRisk{Region: o.Region}
			groups[o.Region] = r
		}
		r.TotalOrders++
		if o.Late {
			r.LateOrders++
		}
	}

	out := make([]models.RegionRisk, 0, len(groups))
	for _, region := range sortedKeys(groups) {
		r := *groups[region]
		r.LateRate = percent(r.LateOrders, r.TotalOrders)
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b models.RegionRisk) int {
		return cmp.Compare(b.LateRate, a.LateRate)
	})
	return out
}

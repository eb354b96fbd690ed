package services

import (
	"cmp"
	"slices"
	"time"

	"dataco-dashboard/internal/models"
)

// LateVsOnTime counts orders per lateness label.
func LateVsOnTime(orders []models.Order) models.LatenessSplit {
	var split models.LatenessSplit
	for _, o := range orders {
		if o.Late {
			split.Late++
		} else {
			split.OnTime++
		}
	}
	return split
}

// DaysLateDistribution histograms the delay of delayed orders, ascending by
// days late. On-time orders are excluded.
func DaysLateDistribution(orders []models.Order) []models.DelayBucket {
	counts := make(map[int]int)
	for _, o := range orders {
		if o.Delayed() {
			counts[o.DelayDays]++
		}
	}

	buckets := make([]models.DelayBucket, 0, len(counts))
	for days, n := range counts {
		buckets = append(buckets, models.DelayBucket{DaysLate: days, Count: n})
	}
	slices.SortFunc(buckets, func(a, b models.DelayBucket) int {
		return cmp.Compare(a.DaysLate, b.DaysLate)
	})
	return buckets
}

// MonthlyAverageDelay averages the delay of delayed orders per shipping
// month. With excludeLatest the most recent month present in orders is
// dropped. Months with no delayed orders are absent.
func MonthlyAverageDelay(orders []models.Order, excludeLatest bool) []models.MonthlyDelay {
	if len(orders) == 0 {
		return nil
	}

	var latest int64
	for i, o := range orders {
		m := models.MonthStart(o.ShippingDate).Unix()
		if i == 0 || m > latest {
			latest = m
		}
	}

	type acc struct {
		month time.Time
		sum   int
		n     int
	}
	months := make(map[int64]*acc)
	for _, o := range orders {
		month := models.MonthStart(o.ShippingDate)
		key := month.Unix()
		if excludeLatest && key == latest {
			continue
		}
		if !o.Delayed() {
			continue
		}
		a, ok := months[key]
		if !ok {
			a = &acc{month: month}
			months[key] = a
		}
		a.sum += o.DelayDays
		a.n++
	}

	out := make([]models.MonthlyDelay, 0, len(months))
	for _, a := range months {
		out = append(out, models.MonthlyDelay{
			Month:        a.month,
			AvgDelayDays: float64(a.sum) / float64(a.n),
		})
	}
	slices.SortFunc(out, func(a, b models.MonthlyDelay) int {
		return a.Month.Compare(b.Month)
	})
	return out
}

// DelaysByRegionMode counts delayed orders per region and shipping mode,
// one column per mode. Rows are ordered ascending by their counts compared
// column by column.
func DelaysByRegionMode(orders []models.Order) models.Pivot {
	type cell struct{ region, mode string }
	counts := make(map[cell]int)
	regionSet := make(map[string]struct{})
	modeSet := make(map[string]struct{})

	for _, o := range orders {
		if !o.Delayed() {
			continue
		}
		counts[cell{o.Region, o.ShippingMode}]++
		regionSet[o.Region] = struct{}{}
		modeSet[o.ShippingMode] = struct{}{}
	}

	modes := sortedKeys(modeSet)
	regions := sortedKeys(regionSet)

	rows := make([]models.PivotRow, 0, len(regions))
	for _, region := range regions {
		row := models.PivotRow{Key: region, Counts: make([]int, len(modes))}
		for j, mode := range modes {
			row.Counts[j] = counts[cell{region, mode}]
		}
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b models.PivotRow) int {
		return slices.Compare(a.Counts, b.Counts)
	})

	return models.Pivot{RowLabel: "order_region", Columns: modes, Rows: rows}
}

// LateRateByCategory ranks categories by the share of delayed orders.
func LateRateByCategory(orders []models.Order, limit int) []models.GroupLateRate {
	return lateRateBy(orders, func(o models.Order) string { return o.Category }, limit)
}

// LateRateByProduct ranks products by the share of delayed orders.
func LateRateByProduct(orders []models.Order, limit int) []models.GroupLateRate {
	return lateRateBy(orders, func(o models.Order) string { return o.ProductName }, limit)
}

// lateRateBy groups in key order and sorts stably, so equal rates keep
// alphabetical order.
func lateRateBy(orders []models.Order, key func(models.Order) string, limit int) []models.GroupLateRate {
	type acc struct{ total, delayed int }
	groups := make(map[string]*acc)
	for _, o := range orders {
		k := key(o)
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.total++
		if o.Delayed() {
			a.delayed++
		}
	}

	out := make([]models.GroupLateRate, 0, len(groups))
	for _, name := range sortedKeys(groups) {
		a := groups[name]
		out = append(out, models.GroupLateRate{
			Name:     name,
			LateRate: percent(a.delayed, a.total),
		})
	}
	slices.SortStableFunc(out, func(a, b models.GroupLateRate) int {
		return cmp.Compare(b.LateRate, a.LateRate)
	})
	return head(out, limit)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func head[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

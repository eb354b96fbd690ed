// Package present formats summary cells for tables and charts.
package present

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"dataco-dashboard/internal/models"
	"github.com/dustin/go-humanize"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// Cell renders v according to kind. Unknown value types fall back to %v.
func Cell(kind models.ColumnKind, v any) string {
	switch kind {
	case models.KindCurrency:
		if f, ok := toFloat(v); ok {
			return Currency(f)
		}
	case models.KindPercent:
		if f, ok := toFloat(v); ok {
			return Percent(f)
		}
	case models.KindCount:
		if f, ok := toFloat(v); ok {
			return humanize.Comma(int64(f))
		}
	case models.KindNumber:
		if f, ok := toFloat(v); ok {
			return strconv.FormatFloat(f, 'f', 2, 64)
		}
	case models.KindMonth:
		if t, ok := v.(time.Time); ok {
			return t.Format(MonthLayout)
		}
	}
	if t, ok := v.(time.Time); ok {
		return t.Format(DateLayout)
	}
	return fmt.Sprint(v)
}

// Currency renders whole dollars with thousands separators, e.g. $12,345
// and -$1,234.
func Currency(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return "-$" + humanize.Comma(-n)
	}
	return "$" + humanize.Comma(n)
}

func Percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// ElementID is the DOM id of the table rendered for view id.
func ElementID(id string) string {
	return "view-" + id
}

// Row formats every cell of row using cols.
func Row(cols []models.Column, row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		kind := models.KindText
		if i < len(cols) {
			kind = cols[i].Kind
		}
		out[i] = Cell(kind, v)
	}
	return out
}

// Headers returns display names for cols.
func Headers(cols []models.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

package warehouse

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dataco-dashboard/internal/models"
)

// ErrMalformed marks a result set that does not match the orders schema.
var ErrMalformed = errors.New("warehouse: malformed result set")

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05 -0700 MST",
	"1/2/2006 15:04",
	"1/2/2006",
}

// column positions in Columns
const (
	colOrderID = iota
	colOrderItemID
	colOrderDate
	colShippingDate
	colLate
	colDelay
	colMarket
	colRegion
	colShippingMode
	colProfit
	colPaymentType
	colStatus
	colSegment
	colCategory
	colProduct
)

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		index[normalizeColumn(name)] = i
	}

	pos := make([]int, len(Columns))
	for i, name := range Columns {
		p, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, name)
		}
		pos[i] = p
	}

	raw := make([]any, len(names))
	dest := make([]any, len(names))
	for i := range raw {
		dest[i] = &raw[i]
	}

	var orders []models.Order
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(orders)+1, err)
		}
		vals := make([]any, len(Columns))
		for i, p := range pos {
			vals[i] = raw[p]
		}
		o, err := decodeOrder(vals)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformed, len(orders)+1, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return orders, nil
}

func decodeOrder(v []any) (models.Order, error) {
	var (
		o   models.Order
		err error
	)

	if o.OrderDate, err = toDate(v[colOrderDate]); err != nil {
		return o, fmt.Errorf("order_date: %w", err)
	}
	if o.ShippingDate, err = toDate(v[colShippingDate]); err != nil {
		return o, fmt.Errorf("shipping_date: %w", err)
	}
	if o.Late, err = toBool(v[colLate]); err != nil {
		return o, fmt.Errorf("late_delivery_risk: %w", err)
	}
	if o.DelayDays, err = toInt(v[colDelay]); err != nil {
		return o, fmt.Errorf("delivery_delay: %w", err)
	}
	if o.DelayDays < 0 {
		o.DelayDays = 0
	}
	if o.Profit, err = toNullFloat(v[colProfit]); err != nil {
		return o, fmt.Errorf("order_profit_per_order: %w", err)
	}

	o.OrderID = toString(v[colOrderID])
	o.OrderItemID = toString(v[colOrderItemID])
	o.Market = toString(v[colMarket])
	o.Region = toString(v[colRegion])
	o.ShippingMode = toString(v[colShippingMode])
	o.PaymentType = toString(v[colPaymentType])
	o.Status = toString(v[colStatus])
	o.Segment = toString(v[colSegment])
	o.Category = toString(v[colCategory])
	o.ProductName = toString(v[colProduct])

	return o, nil
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func toDate(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return models.Date(x), nil
	case string:
		return parseDate(x)
	case []byte:
		return parseDate(string(x))
	case nil:
		return time.Time{}, errors.New("null date")
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.Date(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	case []byte:
		return strconv.ParseBool(strings.TrimSpace(string(x)))
	default:
		return false, fmt.Errorf("unsupported flag type %T", v)
	}
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case string:
		return parseInt(x)
	case []byte:
		return parseInt(string(x))
	default:
		return 0, fmt.Errorf("unsupported integer type %T", v)
	}
}

func parseInt(s string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func toNullFloat(v any) (sql.NullFloat64, error) {
	switch x := v.(type) {
	case nil:
		return sql.NullFloat64{}, nil
	case float64:
		return sql.NullFloat64{Float64: x, Valid: true}, nil
	case int64:
		return sql.NullFloat64{Float64: float64(x), Valid: true}, nil
	case string, []byte:
		s := strings.TrimSpace(toString(x))
		if s == "" {
			return sql.NullFloat64{}, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return sql.NullFloat64{}, err
		}
		return sql.NullFloat64{Float64: f, Valid: true}, nil
	default:
		return sql.NullFloat64{}, fmt.Errorf("unsupported decimal type %T", v)
	}
}

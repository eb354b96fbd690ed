package warehouse

import (
	"fmt"
	"regexp"
	"strings"
)

// Query is one read-only statement against the orders table. Name labels
// logs and metrics; SQL is the cache identity.
type Query struct {
	Name string
	SQL  string
}

const (
	QueryAllOrders      = "all_orders"
	QueryCompleteOrders = "complete_orders"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*){0,2}$`)

// selectList sticks to CASE expressions; it must parse on both Snowflake
// and SQLite.
const selectList = `SELECT
    order_id,
    order_item_id,
    order_date,
    shipping_date,
    CASE WHEN is_delivery_late THEN 1 ELSE 0 END AS late_delivery_risk,
    CASE WHEN days_shipping_actual > days_shipping_scheduled
         THEN days_shipping_actual - days_shipping_scheduled
         ELSE 0 END AS delivery_delay,
    market_std AS market,
    delivery_region AS order_region,
    shipping_mode,
    profit_per_order AS order_profit_per_order,
    payment_type,
    order_status_std AS order_status,
    customer_segment,
    category_name_imputed AS category_name,
    product_name`

// Columns lists the normalized result columns every statement must return.
var Columns = []string{
	"order_id",
	"order_item_id",
	"order_date",
	"shipping_date",
	"late_delivery_risk",
	"delivery_delay",
	"market",
	"order_region",
	"shipping_mode",
	"order_profit_per_order",
	"payment_type",
	"order_status",
	"customer_segment",
	"category_name",
	"product_name",
}

func validTable(table string) error {
	if !identPattern.MatchString(table) {
		return fmt.Errorf("warehouse: invalid table name %q", table)
	}
	return nil
}

func AllOrdersQuery(table string) Query {
	return Query{
		Name: QueryAllOrders,
		SQL:  fmt.Sprintf("%s\nFROM %s", selectList, table),
	}
}

// CompleteOrdersQuery restricts to completed orders in the statement itself
// so the warehouse never ships the other statuses.
func CompleteOrdersQuery(table string) Query {
	return Query{
		Name: QueryCompleteOrders,
		SQL:  fmt.Sprintf("%s\nFROM %s\nWHERE order_status_std = 'COMPLETE'", selectList, table),
	}
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

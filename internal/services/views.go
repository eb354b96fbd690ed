package services

import (
	"dataco-dashboard/internal/config"
	"dataco-dashboard/internal/models"
)

// Scope names the table a view aggregates over.
type Scope int

const (
	// ScopeFiltered is the completed orders restricted by the selection.
	ScopeFiltered Scope = iota
	// ScopeAllOrders is every order, unaffected by the selection.
	ScopeAllOrders
	// ScopeCompleteOrders is every completed order, unaffected by the selection.
	ScopeCompleteOrders
)

func (s Scope) String() string {
	switch s {
	case ScopeAllOrders:
		return "all_orders"
	case ScopeCompleteOrders:
		return "complete_orders"
	default:
		return "filtered"
	}
}

// Inputs carries the three tables a report is computed from.
type Inputs struct {
	Filtered []models.Order
	All      []models.Order
	Complete []models.Order
}

func (in Inputs) Table(s Scope) []models.Order {
	switch s {
	case ScopeAllOrders:
		return in.All
	case ScopeCompleteOrders:
		return in.Complete
	default:
		return in.Filtered
	}
}

type Options struct {
	ExcludePartialMonth bool
	CategoryLimit       int
	ProductLateLimit    int
	ProductProfitLimit  int
	SegmentLimit        int
	StatusOrder         []string
}

func DefaultOptions() Options {
	return Options{
		ExcludePartialMonth: true,
		CategoryLimit:       20,
		ProductLateLimit:    20,
		ProductProfitLimit:  10,
		SegmentLimit:        5,
		StatusOrder:         models.StatusOrder,
	}
}

func OptionsFromConfig(cfg config.ReportConfig) Options {
	return Options{
		ExcludePartialMonth: cfg.ExcludePartialMonth,
		CategoryLimit:       cfg.CategoryLimit,
		ProductLateLimit:    cfg.ProductLateLimit,
		ProductProfitLimit:  cfg.ProductProfitLimit,
		SegmentLimit:        cfg.SegmentLimit,
		StatusOrder:         models.StatusOrder,
	}
}

const (
	TabDelivery = "Delivery"
	TabSales    = "Sales"
	TabQA       = "QA"
	TabCustomer = "Customer"
)

// View is one chart/table of the dashboard.
type View struct {
	ID    string
	Title string
	Tab   string
	Chart models.ChartKind
	Scope Scope
	build func(orders []models.Order, opts Options) (columns []models.Column, rows [][]any)
}

// Compute runs the view over the table selected by its scope.
func (v View) Compute(in Inputs, opts Options) models.Summary {
	orders := in.Table(v.Scope)
	cols, rows := v.build(orders, opts)
	if rows == nil {
		rows = [][]any{}
	}

	s := models.Summary{
		ID:      v.ID,
		Title:   v.Title,
		Tab:     v.Tab,
		Chart:   v.Chart,
		Columns: cols,
		Rows:    rows,
	}
	if len(orders) == 0 || len(rows) == 0 {
		s.NoData = true
		s.Message = models.NoDataMessage
	}
	return s
}

var views = []View{
	{
		ID: "late-vs-on-time", Title: "Late vs On Time Deliveries", Tab: TabDelivery,
		Chart: models.ChartPie, Scope: ScopeFiltered, build: buildLateVsOnTime,
	},
	{
		ID: "days-late", Title: "Amount of Late Deliveries (Days)", Tab: TabDelivery,
		Chart: models.ChartBar, Scope: ScopeFiltered, build: buildDaysLate,
	},
	{
		ID: "monthly-delay", Title: "Average Delivery Delay Over Time", Tab: TabDelivery,
		Chart: models.ChartLine, Scope: ScopeFiltered, build: buildMonthlyDelay,
	},
	{
		ID: "region-mode-delays", Title: "Shipping Mode Comparison per Region", Tab: TabDelivery,
		Chart: models.ChartBarH, Scope: ScopeFiltered, build: buildRegionModeDelays,
	},
	{
		ID: "category-late-rate", Title: "Top Categories with Highest Late Delivery Rate", Tab: TabDelivery,
		Chart: models.ChartBarH, Scope: ScopeFiltered, build: buildCategoryLateRate,
	},
	{
		ID: "product-late-rate", Title: "Top Products with Highest Late Delivery Rate", Tab: TabDelivery,
		Chart: models.ChartBarH, Scope: ScopeFiltered, build: buildProductLateRate,
	},
	{
		ID: "loss-by-market", Title: "Markets with the Most Loss", Tab: TabSales,
		Chart: models.ChartBarH, Scope: ScopeFiltered, build: buildLossByMarket,
	},
	{
		ID: "profit-by-market", Title: "Markets with the Most Profit", Tab: TabSales,
		Chart: models.ChartBarH, Scope: ScopeFiltered, build: buildProfitByMarket,
	},
	{
		ID: "top-products-profit", Title: "Top Products by Total Profit", Tab: TabSales,
		Chart: models.ChartBarH, Scope: ScopeFiltered, build: buildTopProductsProfit,
	},
	{
		ID: "top-products-loss", Title: "Top Products by Total Loss", Tab: TabSales,
		Chart: models.ChartBarH, Scope: ScopeFiltered, build: buildTopProductsLoss,
	},
	{
		ID: "status-payment", Title: "Order Status vs Payment Type", Tab: TabQA,
		Chart: models.ChartHeatmap, Scope: ScopeAllOrders, build: buildStatusPayment,
	},
	{
		ID: "region-late-rate", Title: "Regions with Highest Late Delivery Risk (%)", Tab: TabQA,
		Chart: models.ChartBarH, Scope: ScopeFiltered, build: buildRegionLateRate,
	},
	{
		ID: "segment-top-categories", Title: "Top Most Ordered Categories by Customer Segment", Tab: TabCustomer,
		Chart: models.ChartGroupedBar, Scope: ScopeCompleteOrders, build: buildSegmentTopCategories,
	},
	{
		ID: "segment-profit", Title: "Total Profit by Customer Segment", Tab: TabCustomer,
		Chart: models.ChartBar, Scope: ScopeCompleteOrders, build: buildSegmentProfit,
	},
}

// Views lists the dashboard views in display order.
func Views() []View {
	out := make([]View, len(views))
	copy(out, views)
	return out
}

func LookupView(id string) (View, bool) {
	for _, v := range views {
		if v.ID == id {
			return v, true
		}
	}
	return View{}, false
}

func buildLateVsOnTime(orders []models.Order, _ Options) ([]models.Column, [][]any) {
	split := LateVsOnTime(orders)
	cols := []models.Column{
		{Name: "late_flag_label", Kind: models.KindText},
		{Name: "count", Kind: models.KindCount},
	}
	return cols, [][]any{
		{models.LabelLate, split.Late},
		{models.LabelOnTime, split.OnTime},
	}
}

func buildDaysLate(orders []models.Order, _ Options) ([]models.Column, [][]any) {
	cols := []models.Column{
		{Name: "days_late", Kind: models.KindCount},
		{Name: "deliveries", Kind: models.KindCount},
	}
	var rows [][]any
	for _, b := range DaysLateDistribution(orders) {
		rows = append(rows, []any{b.DaysLate, b.Count})
	}
	return cols, rows
}

func buildMonthlyDelay(orders []models.Order, opts Options) ([]models.Column, [][]any) {
	cols := []models.Column{
		{Name: "month", Kind: models.KindMonth},
		{Name: "avg_delay_days", Kind: models.KindNumber},
	}
	var rows [][]any
	for _, m := range MonthlyAverageDelay(orders, opts.ExcludePartialMonth) {
		rows = append(rows, []any{m.Month, m.AvgDelayDays})
	}
	return cols, rows
}

func pivotTable(p models.Pivot) ([]models.Column, [][]any) {
	cols := make([]models.Column, 0, len(p.Columns)+1)
	cols = append(cols, models.Column{Name: p.RowLabel, Kind: models.KindText})
	for _, c := range p.Columns {
		cols = append(cols, models.Column{Name: c, Kind: models.KindCount})
	}

	var rows [][]any
	for _, r := range p.Rows {
		row := make([]any, 0, len(r.Counts)+1)
		row = append(row, r.Key)
		for _, n := range r.Counts {
			row = append(row, n)
		}
		rows = append(rows, row)
	}
	return cols, rows
}

func buildRegionModeDelays(orders []models.Order, _ Options) ([]models.Column, [][]any) {
	return pivotTable(DelaysByRegionMode(orders))
}

func lateRateTable(label string, rates []models.GroupLateRate) ([]models.Column, [][]any) {
	cols := []models.Column{
		{Name: label, Kind: models.KindText},
		{Name: "late_rate", Kind: models.KindPercent},
	}
	var rows [][]any
	for _, r := range rates {
		rows = append(rows, []any{r.Name, r.LateRate})
	}
	return cols, rows
}

func buildCategoryLateRate(orders []models.Order, opts Options) ([]models.Column, [][]any) {
	return lateRateTable("category_name", LateRateByCategory(orders, opts.CategoryLimit))
}

func buildProductLateRate(orders []models.Order, opts Options) ([]models.Column, [][]any) {
	return lateRateTable("product_name", LateRateByProduct(orders, opts.ProductLateLimit))
}

func marketTable(amountColumn string, amounts []models.MarketAmount) ([]models.Column, [][]any) {
	cols := []models.Column{
		{Name: "market", Kind: models.KindText},
		{Name: amountColumn, Kind: models.KindCurrency},
	}
	var rows [][]any
	for _, a := range amounts {
		rows = append(rows, []any{a.Market, a.Amount})
	}
	return cols, rows
}

func buildLossByMarket(orders []models.Order, _ Options) ([]models.Column, [][]any) {
	return marketTable("loss", LossByMarket(orders))
}

func buildProfitByMarket(orders []models.Order, _ Options) ([]models.Column, [][]any) {
	return marketTable("total_profit", ProfitByMarket(orders))
}

func buildTopProductsProfit(orders []models.Order, opts Options) ([]models.Column, [][]any) {
	cols := []models.Column{
		{Name: "product_name", Kind: models.KindText},
		{Name: "total_profit", Kind: models.KindCurrency},
	}
	var rows [][]any
	for _, p := range TopProductsByProfit(orders, opts.ProductProfitLimit) {
		rows = append(rows, []any{p.ProductName, p.TotalProfit})
	}
	return cols, rows
}

func buildTopProductsLoss(orders []models.Order, opts Options) ([]models.Column, [][]any) {
	cols := []models.Column{
		{Name: "product_name", Kind: models.KindText},
		{Name: "total_profit", Kind: models.KindCurrency},
		{Name: "total_loss", Kind: models.KindCurrency},
	}
	var rows [][]any
	for _, p := range TopProductsByLoss(orders, opts.ProductProfitLimit) {
		rows = append(rows, []any{p.ProductName, p.TotalProfit, p.TotalLoss()})
	}
	return cols, rows
}

func buildStatusPayment(orders []models.Order, opts Options) ([]models.Column, [][]any) {
	statuses := opts.StatusOrder
	if len(statuses) == 0 {
		statuses = models.StatusOrder
	}
	return pivotTable(StatusPaymentCrossTab(orders, statuses))
}

func buildRegionLateRate(orders []models.Order, _ Options) ([]models.Column, [][]any) {
	cols := []models.Column{
		{Name: "order_region", Kind: models.KindText},
		{Name: "total_orders", Kind: models.KindCount},
		{Name: "late_orders", Kind: models.KindCount},
		{Name: "late_rate", Kind: models.KindPercent},
	}
	var rows [][]any
	for _, r := range LateRateByRegion(orders) {
		rows = append(rows, []any{r.Region, r.TotalOrders, r.LateOrders, r.LateRate})
	}
	return cols, rows
}

func buildSegmentTopCategories(orders []models.Order, opts Options) ([]models.Column, [][]any) {
	cols := []models.Column{
		{Name: "customer_segment", Kind: models.KindText},
		{Name: "category_name", Kind: models.KindText},
		{Name: "order_count", Kind: models.KindCount},
	}
	var rows [][]any
	for _, c := range TopCategoriesBySegment(orders, opts.SegmentLimit) {
		rows = append(rows, []any{c.Segment, c.Category, c.OrderCount})
	}
	return cols, rows
}

func buildSegmentProfit(orders []models.Order, _ Options) ([]models.Column, [][]any) {
	cols := []models.Column{
		{Name: "customer_segment", Kind: models.KindText},
		{Name: "total_profit", Kind: models.KindCurrency},
	}
	var rows [][]any
	for _, s := range ProfitBySegment(orders) {
		rows = append(rows, []any{s.Segment, s.TotalProfit})
	}
	return cols, rows
}

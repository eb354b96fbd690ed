package models

import "time"

type ChartKind string

const (
	ChartPie        ChartKind = "pie"
	ChartBar        ChartKind = "bar"
	ChartBarH       ChartKind = "barh"
	ChartHeatmap    ChartKind = "heatmap"
	ChartLine       ChartKind = "line"
	ChartGroupedBar ChartKind = "grouped_bar"
)

type ColumnKind string

const (
	KindText     ColumnKind = "text"
	KindCount    ColumnKind = "count"
	KindNumber   ColumnKind = "number"
	KindPercent  ColumnKind = "percent"
	KindCurrency ColumnKind = "currency"
	KindMonth    ColumnKind = "month"
)

const NoDataMessage = "No data for this selection."

type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Summary is a rendered-ready aggregation result: ordered columns, rows
// and a chart hint for the presentation layer.
type Summary struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Tab     string    `json:"tab"`
	Chart   ChartKind `json:"chart"`
	Columns []Column  `json:"columns"`
	Rows    [][]any   `json:"rows"`
	NoData  bool      `json:"no_data"`
	Message string    `json:"message,omitempty"`
}

type Report struct {
	Selection    Selection `json:"selection"`
	GeneratedAt  time.Time `json:"generated_at"`
	FilteredRows int       `json:"filtered_rows"`
	Views        []Summary `json:"views"`
}

func (r *Report) View(id string) (Summary, bool) {
	for _, v := range r.Views {
		if v.ID == id {
			return v, true
		}
	}
	return Summary{}, false
}

type LatenessSplit struct {
	Late   int `json:"late"`
	OnTime int `json:"on_time"`
}

func (s LatenessSplit) Total() int {
	return s.Late + s.OnTime
}

type DelayBucket struct {
	DaysLate int `json:"days_late"`
	Count    int `json:"count"`
}

type MonthlyDelay struct {
	Month        time.Time `json:"month"`
	AvgDelayDays float64   `json:"avg_delay_days"`
}

// Pivot is a count matrix with a labelled row axis and column axis.
type Pivot struct {
	RowLabel string     `json:"row_label"`
	Columns  []string   `json:"columns"`
	Rows     []PivotRow `json:"rows"`
}

type PivotRow struct {
	Key    string `json:"key"`
	Counts []int  `json:"counts"`
}

func (p Pivot) Total() int {
	total := 0
	for _, r := range p.Rows {
		for _, c := range r.Counts {
			total += c
		}
	}
	return total
}

type GroupLateRate struct {
	Name     string  `json:"name"`
	LateRate float64 `json:"late_rate"`
}

type MarketAmount struct {
	Market string  `json:"market"`
	Amount float64 `json:"amount"`
}

type ProductProfit struct {
	ProductName string  `json:"product_name"`
	TotalProfit float64 `json:"total_profit"`
}

// TotalLoss is the positive loss magnitude of a negative total profit.
func (p ProductProfit) TotalLoss() float64 {
	return -p.TotalProfit
}

type RegionRisk struct {
	Region      string  `json:"order_region"`
	TotalOrders int     `json:"total_orders"`
	LateOrders  int     `json:"late_orders"`
	LateRate    float64 `json:"late_rate"`
}

type SegmentCategory struct {
	Segment    string `json:"customer_segment"`
	Category   string `json:"category_name"`
	OrderCount int    `json:"order_count"`
}

type SegmentProfit struct {
	Segment     string  `json:"customer_segment"`
	TotalProfit float64 `json:"total_profit"`
}

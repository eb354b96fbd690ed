package models

import (
	"database/sql"
	"time"
)

const (
	LabelLate   = "Late"
	LabelOnTime = "On Time"

	StatusComplete = "COMPLETE"
)

// StatusOrder is the fixed row axis of the status/payment cross-tab.
var StatusOrder = []string{
	"COMPLETE",
	"PENDING",
	"CLOSED",
	"PENDING_PAYMENT",
	"CANCELED",
	"PROCESSING",
	"SUSPECTED_FRAUD",
	"ON_HOLD",
	"PAYMENT_REVIEW",
}

// Order is one order line item from the cleaned warehouse table.
type Order struct {
	OrderID      string
	OrderItemID  string
	OrderDate    time.Time
	ShippingDate time.Time
	Late         bool
	DelayDays    int
	Market       string
	Region       string
	ShippingMode string
	Profit       sql.NullFloat64
	PaymentType  string
	Status       string
	Segment      string
	Category     string
	ProductName  string
}

func (o Order) LateLabel() string {
	if o.Late {
		return LabelLate
	}
	return LabelOnTime
}

func (o Order) Delayed() bool {
	return o.DelayDays > 0
}

// Date truncates t to a timezone-naive calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of t's calendar month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) Valid() bool {
	return !Date(r.Start).After(Date(r.End))
}

func (r DateRange) Contains(t time.Time) bool {
	d := Date(t)
	return !d.Before(Date(r.Start)) && !d.After(Date(r.End))
}

// Selection is the interactive filter applied to the completed orders.
type Selection struct {
	Markets []string  `json:"markets"`
	Range   DateRange `json:"range"`
}

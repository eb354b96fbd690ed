package services

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"dataco-dashboard/internal/models"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func profit(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

// order returns a completed, on-time order with the given overrides applied.
func order(opts ...func(*models.Order)) models.Order {
	o := models.Order{
		OrderID:      "1",
		OrderItemID:  "1",
		OrderDate:    day(2024, 1, 1),
		ShippingDate: day(2024, 1, 3),
		Market:       "US",
		Region:       "East",
		ShippingMode: "Standard Class",
		Profit:       profit(10),
		PaymentType:  "DEBIT",
		Status:       models.StatusComplete,
		Segment:      "Consumer",
		Category:     "Cleats",
		ProductName:  "Shoe",
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func shipped(t time.Time) func(*models.Order) {
	return func(o *models.Order) { o.ShippingDate = t }
}

func market(m string) func(*models.Order) {
	return func(o *models.Order) { o.Market = m }
}

func delayed(days int) func(*models.Order) {
	return func(o *models.Order) {
		o.DelayDays = days
		o.Late = days > 0
	}
}

func withProfit(p float64) func(*models.Order) {
	return func(o *models.Order) { o.Profit = profit(p) }
}

var (
	genMarkets  = []string{"Africa", "EU", "LATAM", "Pacific Asia", "USCA"}
	genRegions  = []string{"Central America", "Oceania", "West Africa", "Western Europe"}
	genModes    = []string{"First Class", "Same Day", "Second Class", "Standard Class"}
	genPayments = []string{"CASH", "DEBIT", "PAYMENT", "TRANSFER"}
	genSegments = []string{"Consumer", "Corporate", "Home Office"}
	genStatuses = append(append([]string{}, models.StatusOrder...), "UNKNOWN")
)

// randomOrders builds n orders deterministically from seed.
func randomOrders(seed int64, n int) []models.Order {
	r := rand.New(rand.NewPCG(uint64(seed), 7))
	pick := func(s []string) string { return s[r.IntN(len(s))] }

	out := make([]models.Order, n)
	for i := range out {
		shippedAt := day(2023, 1, 1).AddDate(0, 0, r.IntN(540))
		delay := r.IntN(6)
		o := models.Order{
			OrderID:      string(rune('a' + i%26)),
			OrderDate:    shippedAt.AddDate(0, 0, -r.IntN(5)),
			ShippingDate: shippedAt,
			Late:         r.IntN(2) == 0,
			DelayDays:    delay,
			Market:       pick(genMarkets),
			Region:       pick(genRegions),
			ShippingMode: pick(genModes),
			PaymentType:  pick(genPayments),
			Status:       pick(genStatuses),
			Segment:      pick(genSegments),
			Category:     pick([]string{"Cleats", "Fishing", "Golf", "Water Sports"}),
			ProductName:  pick([]string{"P1", "P2", "P3", "P4", "P5", "P6", "P7", "P8", "P9", "P10", "P11", "P12"}),
		}
		if r.IntN(10) > 0 {
			o.Profit = profit(float64(r.IntN(400) - 200))
		}
		out[i] = o
	}
	return out
}

// fakeSource serves fixed tables and counts loads.
type fakeSource struct {
	all         []models.Order
	complete    []models.Order
	err         error
	loads       atomic.Int32
	invalidated atomic.Int32
}

func newFakeSource(all []models.Order) *fakeSource {
	src := &fakeSource{all: all}
	for _, o := range all {
		if o.Status == models.StatusComplete {
			src.complete = append(src.complete, o)
		}
	}
	return src
}

func (f *fakeSource) LoadAllOrders(ctx context.Context) ([]models.Order, error) {
	f.loads.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.all, ctx.Err()
}

func (f *fakeSource) LoadCompleteOrders(ctx context.Context) ([]models.Order, error) {
	f.loads.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.complete, ctx.Err()
}

func (f *fakeSource) Invalidate() {
	f.invalidated.Add(1)
}

var errWarehouseDown = errors.New("warehouse down")

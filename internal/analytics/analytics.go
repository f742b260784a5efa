// Package analytics derives sales metrics from order history.
package analytics

import (
	"sort"
	"time"

	"capriccio/internal/model"

	"github.com/shopspring/decimal"
)

// Range is an admin time window over order creation time.
type Range string

const (
	RangeAll         Range = "all"
	RangeWeek        Range = "1week"
	RangeFifteenDays Range = "15days"
	RangeMonth       Range = "1month"
)

// ParseRange parses a range, defaulting to RangeAll when s is empty.
func ParseRange(s string) (Range, error) {
	switch r := Range(s); r {
	case "":
		return RangeAll, nil
	case RangeAll, RangeWeek, RangeFifteenDays, RangeMonth:
		return r, nil
	}
	return "", model.ErrInvalidRange
}

// Cutoff returns the earliest creation time inside the range, or nil for
// RangeAll.
func (r Range) Cutoff(now time.Time) *time.Time {
	var cutoff time.Time
	switch r {
	case RangeWeek:
		cutoff = now.AddDate(0, 0, -7)
	case RangeFifteenDays:
		cutoff = now.AddDate(0, 0, -15)
	case RangeMonth:
		cutoff = now.AddDate(0, -1, 0)
	default:
		return nil
	}
	return &cutoff
}

// FilterByRange keeps the orders created at or after the range cutoff.
func FilterByRange(orders []model.Order, r Range, now time.Time) []model.Order {
	cutoff := r.Cutoff(now)
	if cutoff == nil {
		return orders
	}

	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if !o.CreatedAt.Before(*cutoff) {
			out = append(out, o)
		}
	}
	return out
}

// Metrics summarizes revenue over a set of orders. Amounts are truncated to
// whole currency units.
type Metrics struct {
	TotalRevenue      int64 `json:"totalRevenue"`
	OrderCount        int   `json:"orderCount"`
	AverageOrderValue int64 `json:"averageOrderValue"`
}

// ComputeMetrics sums order totals, recomputing a missing total from the
// order's item snapshot.
func ComputeMetrics(orders []model.Order) Metrics {
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.EffectiveTotal())
	}

	m := Metrics{
		TotalRevenue: sum.Floor().IntPart(),
		OrderCount:   len(orders),
	}
	if m.OrderCount > 0 {
		m.AverageOrderValue = m.TotalRevenue / int64(m.OrderCount)
	}
	return m
}

// ProductSales is the accumulated sales of one product.
type ProductSales struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

// Ranking orders products by units sold and by revenue.
type Ranking struct {
	ByQuantity []ProductSales `json:"byQuantity"`
	ByRevenue  []ProductSales `json:"byRevenue"`
}

// RankProducts accumulates sales per product across all order items.
func RankProducts(orders []model.Order) Ranking {
	index := map[string]int{}
	sales := []ProductSales{}

	for _, o := range orders {
		for _, item := range o.Items {
			i, ok := index[item.ID]
			if !ok {
				i = len(sales)
				index[item.ID] = i
				sales = append(sales, ProductSales{ProductID: item.ID, Name: item.Name, TotalRevenue: decimal.Zero})
			}
			sales[i].TotalQuantity += item.Quantity
			sales[i].TotalRevenue = sales[i].TotalRevenue.Add(item.Subtotal())
		}
	}

	byQuantity := make([]ProductSales, len(sales))
	copy(byQuantity, sales)
	sort.SliceStable(byQuantity, func(i, j int) bool {
		return byQuantity[i].TotalQuantity > byQuantity[j].TotalQuantity
	})

	byRevenue := make([]ProductSales, len(sales))
	copy(byRevenue, sales)
	sort.SliceStable(byRevenue, func(i, j int) bool {
		return byRevenue[i].TotalRevenue.GreaterThan(byRevenue[j].TotalRevenue)
	})

	return Ranking{ByQuantity: byQuantity, ByRevenue: byRevenue}
}

// Top truncates both orderings to n entries. n <= 0 keeps everything.
func (r Ranking) Top(n int) Ranking {
	if n <= 0 {
		return r
	}
	if len(r.ByQuantity) > n {
		r.ByQuantity = r.ByQuantity[:n]
	}
	if len(r.ByRevenue) > n {
		r.ByRevenue = r.ByRevenue[:n]
	}
	return r
}

// Report bundles metrics and ranking for one range.
type Report struct {
	Range   Range   `json:"range"`
	Metrics Metrics `json:"metrics"`
	Ranking Ranking `json:"topProducts"`
}

// BuildReport computes the admin dashboard figures of orders.
func BuildReport(r Range, orders []model.Order, top int) Report {
	return Report{
		Range:   r,
		Metrics: ComputeMetrics(orders),
		Ranking: RankProducts(orders).Top(top),
	}
}

package analytics

import (
	"testing"
	"time"

	"capriccio/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, qty int, price string) model.OrderItem {
	return model.OrderItem{ID: id, Name: "Producto " + id, Quantity: qty, Price: decimal.RequireFromString(price)}
}

func total(n int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(n))
}

func TestComputeMetrics(t *testing.T) {
	tests := []struct {
		name     string
		orders   []model.Order
		expected Metrics
	}{
		{
			name:     "No orders",
			expected: Metrics{},
		},
		{
			name: "Missing total recomputed from items",
			orders: []model.Order{
				{Total: total(300)},
				{Total: total(450)},
				{Items: []model.OrderItem{item("p1", 2, "50"), item("p2", 1, "20")}},
			},
			expected: Metrics{TotalRevenue: 870, OrderCount: 3, AverageOrderValue: 290},
		},
		{
			name: "Revenue and average are truncated",
			orders: []model.Order{
				{Items: []model.OrderItem{item("p1", 1, "100.9")}},
				{Items: []model.OrderItem{item("p1", 1, "100.9")}},
			},
			expected: Metrics{TotalRevenue: 201, OrderCount: 2, AverageOrderValue: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeMetrics(tt.orders))
		})
	}
}

func TestFilterByRange(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	orders := []model.Order{
		{Notes: "today", CreatedAt: now},
		{Notes: "6 days", CreatedAt: now.AddDate(0, 0, -6)},
		{Notes: "exactly a week", CreatedAt: now.AddDate(0, 0, -7)},
		{Notes: "10 days", CreatedAt: now.AddDate(0, 0, -10)},
		{Notes: "20 days", CreatedAt: now.AddDate(0, 0, -20)},
		{Notes: "40 days", CreatedAt: now.AddDate(0, 0, -40)},
	}

	tests := []struct {
		r        Range
		expected []string
	}{
		{RangeAll, []string{"today", "6 days", "exactly a week", "10 days", "20 days", "40 days"}},
		{RangeWeek, []string{"today", "6 days", "exactly a week"}},
		{RangeFifteenDays, []string{"today", "6 days", "exactly a week", "10 days"}},
		{RangeMonth, []string{"today", "6 days", "exactly a week", "10 days", "20 days"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			got := []string{}
			for _, o := range FilterByRange(orders, tt.r, now) {
				got = append(got, o.Notes)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFilterByRange_AllIsIdempotent(t *testing.T) {
	now := time.Now()
	orders := []model.Order{{CreatedAt: now}, {CreatedAt: now.AddDate(-1, 0, 0)}}

	once := FilterByRange(orders, RangeAll, now)
	twice := FilterByRange(FilterByRange(orders, RangeAll, now), RangeAll, now)
	assert.Equal(t, orders, once)
	assert.Equal(t, once, twice)
}

func TestCutoff_MonthIsCalendarMonth(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	cutoff := RangeMonth.Cutoff(now)
	require.NotNil(t, cutoff)
	assert.Equal(t, time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC), *cutoff)
	assert.Nil(t, RangeAll.Cutoff(now))
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("")
	require.NoError(t, err)
	assert.Equal(t, RangeAll, r)

	r, err = ParseRange("15days")
	require.NoError(t, err)
	assert.Equal(t, RangeFifteenDays, r)

	_, err = ParseRange("1year")
	assert.ErrorIs(t, err, model.ErrInvalidRange)
}

func TestRankProducts(t *testing.T) {
	orders := []model.Order{
		{Items: []model.OrderItem{item("empanada", 12, "30"), item("muzza", 1, "150")}},
		{Items: []model.OrderItem{item("muzza", 2, "150"), item("faina", 3, "40")}},
		{Items: []model.OrderItem{item("especial", 1, "500")}},
	}

	ranking := RankProducts(orders)

	qty := []string{}
	for _, s := range ranking.ByQuantity {
		qty = append(qty, s.ProductID)
	}
	assert.Equal(t, []string{"empanada", "muzza", "faina", "especial"}, qty)

	rev := []string{}
	for _, s := range ranking.ByRevenue {
		rev = append(rev, s.ProductID)
	}
	assert.Equal(t, []string{"especial", "muzza", "empanada", "faina"}, rev)
	assert.True(t, ranking.ByRevenue[1].TotalRevenue.Equal(decimal.NewFromInt(450)))

	top := ranking.Top(2)
	assert.Len(t, top.ByQuantity, 2)
	assert.Len(t, top.ByRevenue, 2)
	assert.Len(t, ranking.Top(0).ByQuantity, 4)
}

func TestBuildReport_EmptyIsZero(t *testing.T) {
	report := BuildReport(RangeWeek, nil, 5)
	assert.Equal(t, Metrics{}, report.Metrics)
	assert.Empty(t, report.Ranking.ByQuantity)
	assert.Empty(t, report.Ranking.ByRevenue)
}

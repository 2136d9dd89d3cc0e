package domain

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecAttributes(t *testing.T) {
	attrs, err := ParseSpecAttributes(`{"socket":"AM5","tdp":65}`)
	require.NoError(t, err)

	socket, ok := SpecString(attrs, "socket")
	assert.True(t, ok)
	assert.Equal(t, "AM5", socket)

	tdp, ok := SpecInt(attrs, "tdp")
	assert.True(t, ok)
	assert.Equal(t, 65, tdp)

	_, ok = SpecString(attrs, "missing")
	assert.False(t, ok)

	// Wrong types read as absent.
	_, ok = SpecInt(attrs, "socket")
	assert.False(t, ok)
	_, ok = SpecString(attrs, "tdp")
	assert.False(t, ok)
}

func TestParseSpecAttributes_EmptyBlob(t *testing.T) {
	attrs, err := ParseSpecAttributes("")
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestParseSpecAttributes_Garbage(t *testing.T) {
	_, err := ParseSpecAttributes(`{socket`)
	assert.Error(t, err)
}

func TestOrderStatusTransitionTable(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusNew:       {OrderStatusPaid, OrderStatusCancelled},
		OrderStatusPaid:      {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:   {},
		OrderStatusCancelled: {},
	}
	all := []OrderStatus{OrderStatusNew, OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled}

	for from, targets := range allowed {
		permitted := make(map[OrderStatus]bool)
		for _, to := range targets {
			permitted[to] = true
		}
		for _, to := range all {
			assert.Equal(t, permitted[to], from.CanTransitionTo(to),
				"%s -> %s", from, to)
		}
	}
}

func TestProperty_RecalcTotalSumsLines(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total is the sum of quantity times unit price", prop.ForAll(
		func(quantities []int) bool {
			order := &Order{}
			expected := decimal.Zero
			for _, q := range quantities {
				price := decimal.NewFromInt(int64(q * 7)).Div(decimal.NewFromInt(10))
				order.Items = append(order.Items, OrderItem{
					Quantity:  q,
					UnitPrice: price,
				})
				expected = expected.Add(price.Mul(decimal.NewFromInt(int64(q))))
			}

			order.RecalcTotal()
			return order.TotalPrice.Equal(expected)
		},
		gen.SliceOf(gen.IntRange(1, 20)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("CPU")
	require.NoError(t, err)
	assert.Equal(t, CategoryCPU, c)

	_, err = ParseCategory("TOASTER")
	assert.Error(t, err)
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("PAID")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaid, s)

	_, err = ParseOrderStatus("REFUNDED")
	assert.Error(t, err)
}

package adapter

import (
	"testing"
	"time"

	"commerce-dashboard/internal/models"
	"commerce-dashboard/internal/upstream"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestMapOrder(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	o := upstream.Order{
		ID:                1,
		Name:              "#1001",
		Email:             "jane@example.com",
		CreatedAt:         created,
		TotalPrice:        "19.99",
		FinancialStatus:   "paid",
		FulfillmentStatus: strPtr("partial"),
		ReferringSite:     strPtr("https://instagram.com/p/1"),
		Customer:          &upstream.OrderCustomer{},
		LineItems: []upstream.LineItem{
			{ID: 10, ProductID: int64Ptr(42), Title: "Mug", Quantity: 2, Price: "8.00", TotalDiscount: "1.00"},
			{ID: 11, Title: "Gift card", Quantity: 1, Price: "5.00"},
		},
	}

	got, err := MapOrder(o, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "#1001", got.ID)
	assert.Equal(t, "jane", got.CustomerName)
	assert.True(t, decimal.RequireFromString("19.99").Equal(got.Total))
	assert.Equal(t, models.OrderStatusShipped, got.Status)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, "3/1/2024", got.Date)
	assert.Equal(t, 2, got.Items)
	assert.Equal(t, "/", got.LandingSite)
	assert.Equal(t, "instagram.com", got.Referrer)
	require.Len(t, got.LineItems, 2)
	assert.Equal(t, "42", got.LineItems[0].ProductID)
	assert.True(t, decimal.RequireFromString("15").Equal(got.LineItems[0].Net()))
	assert.Equal(t, "", got.LineItems[1].ProductID)
	assert.True(t, got.LineItems[1].Discount.IsZero())
}

func TestMapOrderWithoutCustomerIsGuest(t *testing.T) {
	got, err := MapOrder(upstream.Order{Name: "#1", Email: "x@y.z", TotalPrice: "1.00"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Guest", got.CustomerName)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Equal(t, models.PaymentStatusFailed, got.PaymentStatus)
	assert.Equal(t, "Direct", got.Referrer)
}

func TestMapOrderMalformedTotal(t *testing.T) {
	_, err := MapOrder(upstream.Order{Name: "#2", TotalPrice: "abc"}, time.UTC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#2")
	assert.Contains(t, err.Error(), "total_price")

	_, err = MapOrders([]upstream.Order{
		{Name: "#1", TotalPrice: "1.00"},
		{Name: "#2", TotalPrice: ""},
	}, time.UTC)
	require.Error(t, err)
}

func TestRevenueAndAverageOrderValue(t *testing.T) {
	orders, err := MapOrders([]upstream.Order{
		{Name: "#1", TotalPrice: "19.99"},
		{Name: "#2", TotalPrice: "5.00"},
	}, time.UTC)
	require.NoError(t, err)

	revenue := SumTotals(orders)
	assert.True(t, decimal.RequireFromString("24.99").Equal(revenue), revenue.String())

	aov := Average(revenue, len(orders))
	assert.True(t, decimal.RequireFromString("12.495").Equal(aov), aov.String())
}

func TestMapProduct(t *testing.T) {
	p := upstream.Product{
		ID:     5,
		Title:  "Desk Lamp",
		Status: "active",
		Tags:   "red, summer",
		Variants: []upstream.Variant{
			{Price: "24.50", InventoryQuantity: 3, SKU: "LAMP-1"},
			{Price: "26.00", InventoryQuantity: 4},
		},
	}

	got, err := MapProduct(p)
	require.NoError(t, err)

	assert.Equal(t, "5", got.ID)
	assert.Equal(t, "red", got.Category)
	assert.Equal(t, 7, got.Stock)
	assert.Equal(t, "LAMP-1", got.SKU)
	assert.True(t, decimal.RequireFromString("24.5").Equal(got.Price))
	assert.Equal(t, models.ProductStatusActive, got.Status)
	assert.Equal(t, ProductPlaceholder, got.Image)
	assert.Equal(t, 0, got.Sales)
}

func TestMapProductWithoutVariants(t *testing.T) {
	got, err := MapProduct(upstream.Product{ID: 6, Status: "draft", Images: []upstream.Image{{Src: "https://cdn/x.png"}}})
	require.NoError(t, err)
	assert.True(t, got.Price.IsZero())
	assert.Equal(t, 0, got.Stock)
	assert.Equal(t, "Uncategorized", got.Category)
	assert.Equal(t, models.ProductStatusDraft, got.Status)
	assert.Equal(t, "https://cdn/x.png", got.Image)
}

func TestMapCustomerNameFallbacks(t *testing.T) {
	got, err := MapCustomer(upstream.Customer{ID: 1, TotalSpent: "0.00"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Guest Customer", got.Name)
	assert.Equal(t, []string{}, got.Tags)

	got, err = MapCustomer(upstream.Customer{ID: 2, Email: "a@b.com", TotalSpent: "12.30", OrdersCount: 3, Tags: "vip, wholesale"}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, 3, got.Orders)
	assert.True(t, decimal.RequireFromString("12.3").Equal(got.Spent))
	assert.Equal(t, []string{"vip", "wholesale"}, got.Tags)
}

func TestMapCheckout(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	c := upstream.Checkout{
		Token:      "abc",
		CreatedAt:  now.Add(-72 * time.Hour),
		UpdatedAt:  now.Add(-3 * time.Hour),
		TotalPrice: "30.00",
		Customer:   &upstream.OrderCustomer{FirstName: "Sam"},
		LineItems: []upstream.CheckoutLineItem{
			{Title: "Mug", Price: "10.00", ProductID: int64Ptr(42)},
			{Title: "Pen", Price: "20.00", ProductID: int64Ptr(99)},
		},
	}

	got, err := MapCheckout(c, map[string]string{"42": "https://cdn/mug.png"}, now, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, "Sam", got.CustomerName)
	assert.Equal(t, NoEmail, got.Email)
	assert.Equal(t, 2, got.ItemCount)
	assert.Equal(t, "https://cdn/mug.png", got.Items[0].Image)
	assert.Equal(t, CartItemPlaceholder, got.Items[1].Image)
	assert.True(t, decimal.RequireFromString("30").Equal(got.TotalValue))
	assert.Equal(t, "6/7/2024", got.AbandonedDate)
	assert.Equal(t, "3 hours ago", got.TimeAgo)
}

func TestMapCheckoutGuest(t *testing.T) {
	got, err := MapCheckout(upstream.Checkout{Token: "t", Email: "buyer@shop.io", TotalPrice: "1"}, nil, time.Now(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Guest", got.CustomerName)
	assert.Equal(t, "buyer@shop.io", got.Email)
}

func TestMapPriceRuleStatus(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	scheduled, err := MapPriceRule(upstream.PriceRule{ID: 1, Title: "SOON", Value: "-10.0", ValueType: "percentage", StartsAt: future}, now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, models.DiscountStatusScheduled, scheduled.Status)
	assert.Equal(t, models.DiscountTypePercentage, scheduled.DiscountType)
	assert.True(t, decimal.NewFromInt(10).Equal(scheduled.Value))
	assert.Equal(t, "Never", scheduled.ExpiryDate)

	expired, err := MapPriceRule(upstream.PriceRule{ID: 2, Value: "-5.00", ValueType: "fixed_amount", StartsAt: past.AddDate(0, -1, 0), EndsAt: &past}, now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, models.DiscountStatusExpired, expired.Status)
	assert.Equal(t, models.DiscountTypeFixed, expired.DiscountType)
	assert.Equal(t, "5/1/2024", expired.ExpiryDate)

	active, err := MapPriceRule(upstream.PriceRule{ID: 3, Value: "15", StartsAt: past, EndsAt: &future}, now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, models.DiscountStatusActive, active.Status)
	assert.Equal(t, "1", scheduled.ID)
	assert.Equal(t, "SOON", scheduled.Code)
}

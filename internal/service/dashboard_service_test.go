package service

import (
	"context"
	"os"
	"testing"
	"time"

	"commerce-dashboard/internal/adapter"
	"commerce-dashboard/internal/export"
	"commerce-dashboard/internal/fetch"
	"commerce-dashboard/internal/models"
	"commerce-dashboard/internal/upstream"
	"commerce-dashboard/internal/util"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	util.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

type fakeAPI struct {
	orders        []upstream.Order
	ordersErr     error
	orderCount    int
	orderCountErr error
	products      []upstream.Product
	productsErr   error
	productCount  int
	customers     []upstream.Customer
	customersErr  error
	checkouts     []upstream.Checkout
	checkoutsErr  error
	rules         []upstream.PriceRule
	rulesErr      error
}

func (f *fakeAPI) ListOrders(ctx context.Context) ([]upstream.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.orders, f.ordersErr
}

func (f *fakeAPI) CountOrders(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return f.orderCount, f.orderCountErr
}

func (f *fakeAPI) ListProducts(ctx context.Context) ([]upstream.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.products, f.productsErr
}

func (f *fakeAPI) CountProducts(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.productsErr != nil {
		return 0, f.productsErr
	}
	return f.productCount, nil
}

func (f *fakeAPI) ListCustomers(ctx context.Context) ([]upstream.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.customers, f.customersErr
}

func (f *fakeAPI) ListCheckouts(ctx context.Context) ([]upstream.Checkout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.checkouts, f.checkoutsErr
}

func (f *fakeAPI) ListPriceRules(ctx context.Context) ([]upstream.PriceRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.rules, f.rulesErr
}

func newFixtureAPI() *fakeAPI {
	return &fakeAPI{
		orders: []upstream.Order{
			{
				ID:              1,
				Name:            "#1001",
				CreatedAt:       time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC),
				TotalPrice:      "19.99",
				FinancialStatus: "paid",
				LandingSite:     strPtr("/sale"),
				ReferringSite:   strPtr("https://www.google.com/search?q=mug"),
				Customer:        &upstream.OrderCustomer{FirstName: "Jane", LastName: "Doe"},
				LineItems: []upstream.LineItem{
					{ID: 11, ProductID: int64Ptr(10), Title: "Mug", Quantity: 1, Price: "19.99"},
				},
			},
			{
				ID:                2,
				Name:              "#1002",
				CreatedAt:         time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
				TotalPrice:        "5.00",
				FinancialStatus:   "pending",
				FulfillmentStatus: strPtr("fulfilled"),
				LineItems: []upstream.LineItem{
					{ID: 12, ProductID: int64Ptr(20), Title: "Cap", Quantity: 2, Price: "2.50", TotalDiscount: "0.00"},
				},
			},
		},
		orderCount: 2,
		products: []upstream.Product{
			{
				ID: 10, Title: "Mug", ProductType: "Kitchen", Status: "active",
				Images:   []upstream.Image{{Src: "https://img.example.com/mug.png"}},
				Variants: []upstream.Variant{{Price: "19.99", InventoryQuantity: 3, SKU: "MUG-1"}, {Price: "21.00", InventoryQuantity: 2}},
			},
			{
				ID: 20, Title: "Cap", Tags: "Apparel, Summer", Status: "draft",
				Variants: []upstream.Variant{{Price: "2.50", SKU: "CAP"}},
			},
			{
				ID: 30, Title: "Poster", ProductType: "Decor", Status: "active",
				Variants: []upstream.Variant{{Price: "8.00", InventoryQuantity: 50}},
			},
		},
		productCount: 3,
		customers: []upstream.Customer{
			{ID: 1, FirstName: "Ana", LastName: "Lee", Email: "ana@example.com", OrdersCount: 3, TotalSpent: "100.50", Tags: "VIP, wholesale"},
			{ID: 2, Email: "bob@example.com", OrdersCount: 1, TotalSpent: "0.00"},
		},
		checkouts: []upstream.Checkout{
			{
				Token:      "tok-1",
				Email:      "sam@example.com",
				Customer:   &upstream.OrderCustomer{FirstName: "Sam"},
				CreatedAt:  time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC),
				UpdatedAt:  time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
				TotalPrice: "30.00",
				LineItems: []upstream.CheckoutLineItem{
					{Title: "Mug", Price: "19.99", ProductID: int64Ptr(10), Quantity: 1},
					{Title: "Gift card", Price: "10.01", ProductID: int64Ptr(99), Quantity: 1},
				},
			},
		},
		rules: []upstream.PriceRule{
			{ID: 1, Title: "SPRING10", ValueType: "percentage", Value: "-10.0", UsageCount: 4, StartsAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			{
				ID: 2, Title: "FIVEOFF", ValueType: "fixed_amount", Value: "-5.00", UsageCount: 2,
				StartsAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				EndsAt:   timePtr(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
			},
		},
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func newTestService(api CommerceAPI) *DashboardService {
	return NewDashboardService(api, Options{
		Location:          time.UTC,
		WindowDays:        30,
		LowStockThreshold: 10,
		Clock:             func() time.Time { return testNow },
	})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOverview(t *testing.T) {
	svc := newTestService(newFixtureAPI())

	view, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.True(t, view.Revenue.Equal(dec("24.99")), "revenue %s", view.Revenue)
	assert.True(t, view.AverageOrderValue.Equal(dec("12.495")), "aov %s", view.AverageOrderValue)
	assert.Equal(t, 2, view.TotalOrders)
	assert.Equal(t, 3, view.TotalProducts)

	require.Len(t, view.RevenueSeries, 31)
	last := view.RevenueSeries[30]
	assert.Equal(t, "2024-03-15", last.Date)
	assert.Equal(t, "Mar 15", last.Label)
	assert.True(t, view.RevenueSeries[29].Revenue.Equal(dec("19.99")))

	require.Len(t, view.RecentOrders, 2)
	assert.Equal(t, "#1001", view.RecentOrders[0].ID)

	require.Len(t, view.TopProducts, 2)
	assert.Equal(t, "Mug", view.TopProducts[0].Name)

	require.Len(t, view.KPIs, 4)
	assert.Equal(t, "Total Revenue", view.KPIs[0].Label)
	assert.Equal(t, "$24.99", view.KPIs[0].Value)
	assert.Nil(t, view.KPIs[0].Change)
	assert.Equal(t, models.TrendUp, view.KPIs[0].Trend)
	assert.Equal(t, "2", view.KPIs[1].Value)

	for _, name := range []string{"orders", "ordersCount", "productsCount"} {
		assert.Equal(t, fetch.StatusOK, view.Sections[name].Status, name)
	}
}

func TestOverviewChangeAgainstPreviousWindow(t *testing.T) {
	api := newFixtureAPI()
	api.orders = append(api.orders, upstream.Order{
		ID: 3, Name: "#1000", TotalPrice: "20.00", FinancialStatus: "paid",
		CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	svc := newTestService(api)

	view, err := svc.Overview(context.Background())
	require.NoError(t, err)

	require.NotNil(t, view.KPIs[0].Change)
	assert.InDelta(t, 25.0, *view.KPIs[0].Change, 0.001)
	assert.Equal(t, models.TrendUp, view.KPIs[0].Trend)

	require.NotNil(t, view.KPIs[1].Change)
	assert.InDelta(t, 100.0, *view.KPIs[1].Change, 0.001)
}

func TestOverviewIsolatesFailedSections(t *testing.T) {
	api := newFixtureAPI()
	api.orderCountErr = errors.New("rate limited")
	svc := newTestService(api)

	view, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fetch.StatusError, view.Sections["ordersCount"].Status)
	assert.Contains(t, view.Sections["ordersCount"].Error, "rate limited")
	assert.Equal(t, fetch.StatusOK, view.Sections["orders"].Status)
	assert.Equal(t, 0, view.TotalOrders)
	assert.True(t, view.Revenue.Equal(dec("24.99")))
}

func TestMalformedMoneyFailsOnlyItsSection(t *testing.T) {
	api := newFixtureAPI()
	api.orders[0].TotalPrice = "abc"
	svc := newTestService(api)

	view, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fetch.StatusError, view.Sections["orders"].Status)
	assert.Equal(t, fetch.StatusOK, view.Sections["productsCount"].Status)
	assert.True(t, view.Revenue.IsZero())
	assert.Empty(t, view.RecentOrders)
}

func TestCancelledRequestDiscardsView(t *testing.T) {
	svc := newTestService(newFixtureAPI())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	view, err := svc.Overview(ctx)
	assert.Nil(t, view)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestUnmappedStatusesAreCounted(t *testing.T) {
	api := newFixtureAPI()
	api.orders[0].FulfillmentStatus = strPtr("restocked")
	api.orders[1].FinancialStatus = "voided"
	svc := newTestService(api)

	fulfillment := util.UpstreamUnmappedStatusTotal.WithLabelValues("fulfillment_status")
	financial := util.UpstreamUnmappedStatusTotal.WithLabelValues("financial_status")
	beforeFulfillment := testutil.ToFloat64(fulfillment)
	beforeFinancial := testutil.ToFloat64(financial)

	view, err := svc.Fulfillment(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(fulfillment)-beforeFulfillment)
	assert.Equal(t, 1.0, testutil.ToFloat64(financial)-beforeFinancial)
	assert.Equal(t, 1, view.StatusCounts[models.OrderStatusPending])
}

func TestOrders(t *testing.T) {
	svc := newTestService(newFixtureAPI())
	ctx := context.Background()

	t.Run("all statuses newest first", func(t *testing.T) {
		view, err := svc.Orders(ctx, ListQuery{Status: "All"})
		require.NoError(t, err)
		require.Equal(t, 2, view.Orders.Total)
		assert.Equal(t, "#1001", view.Orders.Items[0].ID)
		assert.Equal(t, 1, view.Orders.Pages)
		assert.Equal(t, 1, view.StatusCounts[models.OrderStatusPending])
		assert.Equal(t, 1, view.StatusCounts[models.OrderStatusDelivered])
		assert.Equal(t, 0, view.StatusCounts[models.OrderStatusShipped])
	})

	t.Run("status filter", func(t *testing.T) {
		view, err := svc.Orders(ctx, ListQuery{Status: "delivered"})
		require.NoError(t, err)
		require.Len(t, view.Orders.Items, 1)
		assert.Equal(t, "#1002", view.Orders.Items[0].ID)
	})

	t.Run("search", func(t *testing.T) {
		view, err := svc.Orders(ctx, ListQuery{Search: "jane"})
		require.NoError(t, err)
		require.Len(t, view.Orders.Items, 1)
		assert.Equal(t, "Jane Doe", view.Orders.Items[0].CustomerName)
	})

	t.Run("guest customer", func(t *testing.T) {
		view, err := svc.Orders(ctx, ListQuery{Search: "#1002"})
		require.NoError(t, err)
		require.Len(t, view.Orders.Items, 1)
		assert.Equal(t, adapter.GuestName, view.Orders.Items[0].CustomerName)
	})

	t.Run("pagination", func(t *testing.T) {
		view, err := svc.Orders(ctx, ListQuery{Page: 2, PageSize: 1})
		require.NoError(t, err)
		require.Len(t, view.Orders.Items, 1)
		assert.Equal(t, "#1002", view.Orders.Items[0].ID)
		assert.Equal(t, 2, view.Orders.Pages)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.Orders(ctx, ListQuery{Status: "lost"})
		assert.True(t, errors.Is(err, ErrInvalidQuery))
	})
}

func TestOrderItems(t *testing.T) {
	svc := newTestService(newFixtureAPI())

	view, err := svc.OrderItems(context.Background(), ListQuery{})
	require.NoError(t, err)

	assert.Equal(t, 3, view.TotalUnits)
	assert.True(t, view.NetRevenue.Equal(dec("24.99")))
	require.Equal(t, 2, view.Items.Total)
	assert.Equal(t, "#1001", view.Items.Items[0].OrderID)

	require.Len(t, view.MostSold, 2)
	assert.Equal(t, "Cap", view.MostSold[0].Name)
	assert.Equal(t, "Mug", view.RevenueByProduct[0].Name)

	filtered, err := svc.OrderItems(context.Background(), ListQuery{Search: "cap"})
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.Items.Total)
	assert.Equal(t, 3, filtered.TotalUnits)
}

func TestProducts(t *testing.T) {
	svc := newTestService(newFixtureAPI())
	ctx := context.Background()

	view, err := svc.Products(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, view.Products.Total)
	assert.Equal(t, []string{"Apparel", "Decor", "Kitchen"}, view.Categories)

	mug := view.Products.Items[0]
	assert.Equal(t, 5, mug.Stock)
	assert.Equal(t, "MUG-1", mug.SKU)
	assert.Equal(t, adapter.ProductPlaceholder, view.Products.Items[1].Image)

	active, err := svc.Products(ctx, ListQuery{Status: "Active"})
	require.NoError(t, err)
	assert.Equal(t, 2, active.Products.Total)

	apparel, err := svc.Products(ctx, ListQuery{Category: "apparel"})
	require.NoError(t, err)
	require.Equal(t, 1, apparel.Products.Total)
	assert.Equal(t, "Cap", apparel.Products.Items[0].Name)

	bySKU, err := svc.Products(ctx, ListQuery{Search: "mug-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, bySKU.Products.Total)

	_, err = svc.Products(ctx, ListQuery{Status: "archived"})
	assert.True(t, errors.Is(err, ErrInvalidQuery))
}

func TestInventory(t *testing.T) {
	svc := newTestService(newFixtureAPI())

	view, err := svc.Inventory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, view.TotalSKUs)
	assert.Equal(t, 1, view.LowStock)
	assert.Equal(t, 1, view.OutOfStock)
	assert.Equal(t, 10, view.LowStockThreshold)

	require.Len(t, view.FastMoving, 3)
	assert.Equal(t, "Cap", view.FastMoving[0].Name)
	assert.Equal(t, 2.0, view.FastMoving[0].Value)
	assert.Equal(t, "Poster", view.SlowMoving[0].Name)

	assert.Equal(t, "Decor", view.StockByCategory[0].Name)
}

func TestFulfillment(t *testing.T) {
	svc := newTestService(newFixtureAPI())

	view, err := svc.Fulfillment(context.Background())
	require.NoError(t, err)

	require.Len(t, view.Distribution, 4)
	names := make([]string, 0, 4)
	for _, p := range view.Distribution {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Pending", "Shipped", "Delivered", "Cancelled"}, names)
	assert.Equal(t, 1.0, view.Distribution[0].Value)
	assert.Equal(t, 1.0, view.Distribution[2].Value)
}

func TestAbandonedCarts(t *testing.T) {
	svc := newTestService(newFixtureAPI())

	view, err := svc.AbandonedCarts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, view.Sessions)
	assert.True(t, view.PotentialRevenue.Equal(dec("30")))
	assert.True(t, view.AverageCartValue.Equal(dec("30")))

	cart := view.Carts[0]
	assert.Equal(t, "Sam", cart.CustomerName)
	assert.Equal(t, "3 hours ago", cart.TimeAgo)
	assert.Equal(t, "https://img.example.com/mug.png", cart.Items[0].Image)
	assert.Equal(t, adapter.CartItemPlaceholder, cart.Items[1].Image)
}

func TestAbandonedCartsWithoutProducts(t *testing.T) {
	api := newFixtureAPI()
	api.productsErr = errors.New("products unavailable")
	svc := newTestService(api)

	view, err := svc.AbandonedCarts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fetch.StatusError, view.Sections["products"].Status)
	assert.Equal(t, fetch.StatusOK, view.Sections["checkouts"].Status)
	require.Len(t, view.Carts, 1)
	assert.Equal(t, adapter.CartItemPlaceholder, view.Carts[0].Items[0].Image)
}

func TestCustomers(t *testing.T) {
	svc := newTestService(newFixtureAPI())
	ctx := context.Background()

	view, err := svc.Customers(ctx, ListQuery{})
	require.NoError(t, err)

	assert.Equal(t, 2, view.TotalCustomers)
	assert.True(t, view.TotalSpent.Equal(dec("100.50")))
	assert.True(t, view.AverageSpent.Equal(dec("50.25")))
	assert.Equal(t, 1, view.RepeatCustomers)
	assert.Equal(t, []string{"VIP", "wholesale"}, view.Tags)
	assert.Equal(t, "bob", view.Customers.Items[1].Name)

	vip, err := svc.Customers(ctx, ListQuery{Tag: "vip"})
	require.NoError(t, err)
	require.Equal(t, 1, vip.Customers.Total)
	assert.Equal(t, "Ana Lee", vip.Customers.Items[0].Name)

	bob, err := svc.Customers(ctx, ListQuery{Search: "BOB@"})
	require.NoError(t, err)
	assert.Equal(t, 1, bob.Customers.Total)
}

func TestFunnel(t *testing.T) {
	svc := newTestService(newFixtureAPI())

	view, err := svc.Funnel(context.Background())
	require.NoError(t, err)

	require.Len(t, view.Steps, 4)
	expected := []FunnelStep{
		{Name: "View Product", Value: 15, Dropoff: 0, Estimated: true},
		{Name: "Add to Cart", Value: 7, Dropoff: 53, Estimated: true},
		{Name: "Checkout", Value: 3, Dropoff: 57},
		{Name: "Purchase", Value: 2, Dropoff: 33},
	}
	assert.Equal(t, expected, view.Steps)
}

func TestFunnelWithNoActivity(t *testing.T) {
	api := newFixtureAPI()
	api.orderCount = 0
	api.checkouts = nil
	svc := newTestService(api)

	view, err := svc.Funnel(context.Background())
	require.NoError(t, err)

	for _, step := range view.Steps {
		assert.Equal(t, 0, step.Value, step.Name)
		assert.Equal(t, 0.0, step.Dropoff, step.Name)
	}
	assert.Equal(t, fetch.StatusEmpty, view.Sections["checkouts"].Status)
}

func TestTraffic(t *testing.T) {
	svc := newTestService(newFixtureAPI())

	view, err := svc.Traffic(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, view.AttributedOrders)
	require.Len(t, view.Referrers, 2)
	assert.Equal(t, adapter.DirectReferrer, view.Referrers[0].Name)
	assert.Equal(t, "www.google.com", view.Referrers[1].Name)

	require.Len(t, view.LandingPages, 2)
	assert.Equal(t, "/", view.LandingPages[0].Name)
	assert.Len(t, view.OrdersSeries, 31)
}

func TestDiscounts(t *testing.T) {
	svc := newTestService(newFixtureAPI())

	view, err := svc.Discounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, view.TotalCodes)
	assert.Equal(t, 1, view.ActiveCodes)
	assert.Equal(t, 6, view.TotalUsage)
	assert.True(t, view.AverageOrderValue.Equal(dec("12.495")))
	assert.True(t, view.EstimatedDiscountValue.Equal(dec("14.998")), "estimated %s", view.EstimatedDiscountValue)

	assert.Equal(t, models.DiscountStatusExpired, view.Codes[1].Status)
	assert.Equal(t, adapter.NeverExpires, view.Codes[0].ExpiryDate)
	assert.True(t, view.Codes[0].Value.Equal(dec("10")))
}

func TestExportTable(t *testing.T) {
	svc := newTestService(newFixtureAPI())
	ctx := context.Background()

	t.Run("orders newest first", func(t *testing.T) {
		table, err := svc.ExportTable(ctx, export.ViewOrders)
		require.NoError(t, err)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "#1001", table.Rows[0][0])
		assert.Equal(t, "19.99", table.Rows[0][3])
	})

	t.Run("every view renders", func(t *testing.T) {
		for _, view := range export.Views {
			table, err := svc.ExportTable(ctx, view)
			require.NoError(t, err, view)
			assert.NotEmpty(t, table.Headers, view)
		}
	})

	t.Run("unknown view", func(t *testing.T) {
		_, err := svc.ExportTable(ctx, "funnel")
		assert.True(t, errors.Is(err, ErrUnknownView))
	})
}

func TestExportTableFailsOnMissingSection(t *testing.T) {
	api := newFixtureAPI()
	api.ordersErr = errors.New("upstream 503")
	svc := newTestService(api)

	_, err := svc.ExportTable(context.Background(), export.ViewInventory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch orders")
	assert.Contains(t, err.Error(), "upstream 503")
}

func TestExportAbandonedCartsToleratesMissingProducts(t *testing.T) {
	api := newFixtureAPI()
	api.productsErr = errors.New("products unavailable")
	svc := newTestService(api)

	table, err := svc.ExportTable(context.Background(), export.ViewAbandonedCarts)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}

package service

import (
	"commerce-dashboard/internal/fetch"
	"commerce-dashboard/internal/models"

	"github.com/shopspring/decimal"
)

// View names.
const (
	ViewOverview       = "overview"
	ViewOrders         = "orders"
	ViewOrderItems     = "order-items"
	ViewProducts       = "products"
	ViewInventory      = "inventory"
	ViewFulfillment    = "fulfillment"
	ViewAbandonedCarts = "abandoned-carts"
	ViewCustomers      = "customers"
	ViewFunnel         = "funnel"
	ViewTraffic        = "traffic"
	ViewDiscounts      = "discounts"
)

// SectionState reports how one upstream call of a view went.
type SectionState struct {
	Status fetch.Status `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// Sections maps section names to their state.
type Sections map[string]SectionState

func addSection[T any](s Sections, name string, section *fetch.Section[T]) {
	s[name] = SectionState{Status: section.Status, Error: section.Error}
}

func addValue[T any](s Sections, name string, value *fetch.Value[T]) {
	s[name] = SectionState{Status: value.Status, Error: value.Error}
}

type OverviewView struct {
	Sections          Sections             `json:"sections"`
	KPIs              []models.KPI         `json:"kpis"`
	Revenue           decimal.Decimal      `json:"revenue"`
	AverageOrderValue decimal.Decimal      `json:"averageOrderValue"`
	TotalOrders       int                  `json:"totalOrders"`
	TotalProducts     int                  `json:"totalProducts"`
	RevenueSeries     []models.DailyPoint  `json:"revenueSeries"`
	TopProducts       []models.ProductStat `json:"topProducts"`
	RecentOrders      []models.Order       `json:"recentOrders"`
}

type OrdersView struct {
	Sections     Sections                   `json:"sections"`
	Orders       Page[models.Order]         `json:"orders"`
	StatusCounts map[models.OrderStatus]int `json:"statusCounts"`
}

// OrderItemRow is a line item flattened with its order.
type OrderItemRow struct {
	OrderID     string          `json:"orderId"`
	ID          string          `json:"id"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	NetRevenue  decimal.Decimal `json:"netRevenue"`
	Date        string          `json:"date"`
}

type OrderItemsView struct {
	Sections         Sections             `json:"sections"`
	Items            Page[OrderItemRow]   `json:"items"`
	TotalUnits       int                  `json:"totalUnits"`
	NetRevenue       decimal.Decimal      `json:"netRevenue"`
	MostSold         []models.ProductStat `json:"mostSold"`
	RevenueByProduct []models.ProductStat `json:"revenueByProduct"`
}

type ProductsView struct {
	Sections   Sections             `json:"sections"`
	Products   Page[models.Product] `json:"products"`
	Categories []string             `json:"categories"`
}

type InventoryView struct {
	Sections          Sections            `json:"sections"`
	TotalSKUs         int                 `json:"totalSkus"`
	LowStock          int                 `json:"lowStock"`
	OutOfStock        int                 `json:"outOfStock"`
	LowStockThreshold int                 `json:"lowStockThreshold"`
	StockByCategory   []models.ChartPoint `json:"stockByCategory"`
	FastMoving        []models.ChartPoint `json:"fastMoving"`
	SlowMoving        []models.ChartPoint `json:"slowMoving"`
	Items             []models.Product    `json:"items"`
}

type FulfillmentView struct {
	Sections     Sections                   `json:"sections"`
	StatusCounts map[models.OrderStatus]int `json:"statusCounts"`
	Distribution []models.ChartPoint        `json:"distribution"`
	Orders       []models.Order             `json:"orders"`
}

type AbandonedCartsView struct {
	Sections         Sections               `json:"sections"`
	Carts            []models.AbandonedCart `json:"carts"`
	Sessions         int                    `json:"sessions"`
	PotentialRevenue decimal.Decimal        `json:"potentialRevenue"`
	AverageCartValue decimal.Decimal        `json:"averageCartValue"`
}

type CustomersView struct {
	Sections        Sections              `json:"sections"`
	Customers       Page[models.Customer] `json:"customers"`
	TotalCustomers  int                   `json:"totalCustomers"`
	TotalSpent      decimal.Decimal       `json:"totalSpent"`
	AverageSpent    decimal.Decimal       `json:"averageSpent"`
	RepeatCustomers int                   `json:"repeatCustomers"`
	Tags            []string              `json:"tags"`
}

// FunnelStep is one stage of the purchase funnel. Estimated steps are derived
// from the next stage by a fixed multiplier, not measured.
type FunnelStep struct {
	Name      string  `json:"name"`
	Value     int     `json:"value"`
	Dropoff   float64 `json:"dropoff"`
	Estimated bool    `json:"estimated"`
}

type FunnelView struct {
	Sections Sections     `json:"sections"`
	Steps    []FunnelStep `json:"steps"`
}

type TrafficView struct {
	Sections         Sections            `json:"sections"`
	AttributedOrders int                 `json:"attributedOrders"`
	LandingPages     []models.ChartPoint `json:"landingPages"`
	Referrers        []models.ChartPoint `json:"referrers"`
	OrdersSeries     []models.DailyPoint `json:"ordersSeries"`
}

type DiscountsView struct {
	Sections               Sections              `json:"sections"`
	Codes                  []models.DiscountCode `json:"codes"`
	TotalCodes             int                   `json:"totalCodes"`
	ActiveCodes            int                   `json:"activeCodes"`
	TotalUsage             int                   `json:"totalUsage"`
	AverageOrderValue      decimal.Decimal       `json:"averageOrderValue"`
	EstimatedDiscountValue decimal.Decimal       `json:"estimatedDiscountValue"`
}

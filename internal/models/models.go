package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the display fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// OrderStatuses lists display statuses in presentation order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// PaymentStatus is the display financial status of an order
type PaymentStatus string

const (
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusFailed   PaymentStatus = "Failed"
	PaymentStatusRefunded PaymentStatus = "Refunded"
)

// ProductStatus is the display publication status of a product
type ProductStatus string

const (
	ProductStatusActive ProductStatus = "Active"
	ProductStatusDraft  ProductStatus = "Draft"
)

// DiscountStatus is derived from a price rule's validity window
type DiscountStatus string

const (
	DiscountStatusActive    DiscountStatus = "Active"
	DiscountStatusExpired   DiscountStatus = "Expired"
	DiscountStatusScheduled DiscountStatus = "Scheduled"
)

// DiscountType is the kind of value a discount code applies
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "Percentage"
	DiscountTypeFixed      DiscountType = "Fixed"
)

// Order is the display record of an upstream order
type Order struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customerName"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	Date          string          `json:"date"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         int             `json:"items"`
	LandingSite   string          `json:"landingSite"`
	Referrer      string          `json:"referrer"`
	LineItems     []LineItem      `json:"lineItems"`
}

// LineItem is one product line of an order
type LineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
}

// Gross returns price times quantity.
func (li LineItem) Gross() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Net returns the line revenue after discounts.
func (li LineItem) Net() decimal.Decimal {
	return li.Gross().Sub(li.Discount)
}

// Product is the display record of an upstream product
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
	Status   ProductStatus   `json:"status"`
	Image    string          `json:"image"`
	Sales    int             `json:"sales"`
}

// Customer is the display record of an upstream customer
type Customer struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Orders        int             `json:"orders"`
	Spent         decimal.Decimal `json:"spent"`
	LastOrderDate string          `json:"lastOrderDate"`
	Tags          []string        `json:"tags"`
}

// CartItem is one line of an abandoned checkout
type CartItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// AbandonedCart is the display record of an upstream checkout
type AbandonedCart struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customerName"`
	Email         string          `json:"email"`
	Items         []CartItem      `json:"items"`
	ItemCount     int             `json:"itemCount"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	AbandonedDate string          `json:"abandonedDate"`
	TimeAgo       string          `json:"timeAgo"`
}

// DiscountCode is the display record of an upstream price rule
type DiscountCode struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	DiscountType DiscountType    `json:"discountType"`
	Value        decimal.Decimal `json:"value"`
	UsageCount   int             `json:"usageCount"`
	Status       DiscountStatus  `json:"status"`
	ExpiryDate   string          `json:"expiryDate"`
}

// Trend is the direction of a KPI change
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// KPI is a summary tile with an optional change against the previous period
type KPI struct {
	Label  string   `json:"label"`
	Value  string   `json:"value"`
	Change *float64 `json:"change,omitempty"`
	Trend  Trend    `json:"trend,omitempty"`
}

// ChartPoint is a generic named chart value
type ChartPoint struct {
	Name   string   `json:"name"`
	Value  float64  `json:"value"`
	Value2 *float64 `json:"value2,omitempty"`
}

// DailyPoint is one day bucket of a time series
type DailyPoint struct {
	Date    string          `json:"date"`
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// ProductStat aggregates line items of one product
type ProductStat struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
	Discount decimal.Decimal `json:"discount"`
}

// Export job statuses
const (
	ExportStatusPending = "PENDING"
	ExportStatusReady   = "READY"
	ExportStatusFailed  = "FAILED"
)

// ExportJob tracks an asynchronous CSV export
type ExportJob struct {
	ID        string    `db:"id" json:"id"`
	View      string    `db:"view" json:"view"`
	Status    string    `db:"status" json:"status"`
	Rows      int       `db:"rows" json:"rows"`
	SizeBytes int       `db:"size_bytes" json:"sizeBytes"`
	Error     string    `db:"error" json:"error,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

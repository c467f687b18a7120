package upstream

import "time"

// Order is an order as returned by the admin API.
type Order struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	CreatedAt         time.Time      `json:"created_at"`
	TotalPrice        string         `json:"total_price"`
	SubtotalPrice     string         `json:"subtotal_price"`
	FinancialStatus   string         `json:"financial_status"`
	FulfillmentStatus *string        `json:"fulfillment_status"`
	Currency          string         `json:"currency"`
	LandingSite       *string        `json:"landing_site"`
	ReferringSite     *string        `json:"referring_site"`
	Customer          *OrderCustomer `json:"customer"`
	LineItems         []LineItem     `json:"line_items"`
}

// OrderCustomer is the customer embedded in orders and checkouts. Its email is
// not decoded; the record-level email is used instead.
type OrderCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LineItem struct {
	ID            int64  `json:"id"`
	ProductID     *int64 `json:"product_id"`
	Title         string `json:"title"`
	Quantity      int    `json:"quantity"`
	Price         string `json:"price"`
	TotalDiscount string `json:"total_discount"`
	SKU           string `json:"sku"`
}

// Product is a product as returned by the admin API.
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Handle      string    `json:"handle"`
	Status      string    `json:"status"`
	Tags        string    `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	Images      []Image   `json:"images"`
	Variants    []Variant `json:"variants"`
}

type Image struct {
	Src string `json:"src"`
}

type Variant struct {
	ID                int64  `json:"id"`
	Price             string `json:"price"`
	InventoryQuantity int    `json:"inventory_quantity"`
	SKU               string `json:"sku"`
}

// Customer is a customer as returned by the admin API.
type Customer struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	OrdersCount int       `json:"orders_count"`
	TotalSpent  string    `json:"total_spent"`
	Tags        string    `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	LastOrderID *int64    `json:"last_order_id"`
}

// Checkout is an abandoned checkout as returned by the admin API.
type Checkout struct {
	Token      string             `json:"token"`
	Email      string             `json:"email"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	TotalPrice string             `json:"total_price"`
	Customer   *OrderCustomer     `json:"customer"`
	LineItems  []CheckoutLineItem `json:"line_items"`
}

type CheckoutLineItem struct {
	Title     string `json:"title"`
	Price     string `json:"price"`
	ProductID *int64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PriceRule is a discount rule as returned by the admin API.
type PriceRule struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	ValueType  string     `json:"value_type"`
	Value      string     `json:"value"`
	UsageCount int        `json:"usage_count"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at"`
}

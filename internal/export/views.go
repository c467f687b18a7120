package export

import (
	"strconv"
	"strings"

	"commerce-dashboard/internal/models"
)

// Exportable views.
const (
	ViewOrders         = "orders"
	ViewOrderItems     = "order-items"
	ViewProducts       = "products"
	ViewInventory      = "inventory"
	ViewCustomers      = "customers"
	ViewAbandonedCarts = "abandoned-carts"
	ViewDiscounts      = "discounts"
)

// Views lists every view that can be exported.
var Views = []string{
	ViewOrders,
	ViewOrderItems,
	ViewProducts,
	ViewInventory,
	ViewCustomers,
	ViewAbandonedCarts,
	ViewDiscounts,
}

// IsView reports whether view can be exported.
func IsView(view string) bool {
	for _, v := range Views {
		if v == view {
			return true
		}
	}
	return false
}

func OrdersTable(orders []models.Order) *Table {
	t := &Table{Headers: []string{"Order ID", "Customer", "Date", "Total", "Status", "Payment", "Items", "Landing Site", "Referrer"}}
	for _, o := range orders {
		t.Rows = append(t.Rows, []string{
			o.ID,
			o.CustomerName,
			o.Date,
			o.Total.StringFixed(2),
			string(o.Status),
			string(o.PaymentStatus),
			strconv.Itoa(o.Items),
			o.LandingSite,
			o.Referrer,
		})
	}
	return t
}

func OrderItemsTable(orders []models.Order) *Table {
	t := &Table{Headers: []string{"Order ID", "Item ID", "Product", "Quantity", "Price", "Discount", "Net Revenue", "Date"}}
	for _, o := range orders {
		for _, item := range o.LineItems {
			t.Rows = append(t.Rows, []string{
				o.ID,
				item.ID,
				item.Name,
				strconv.Itoa(item.Quantity),
				item.Price.StringFixed(2),
				item.Discount.StringFixed(2),
				item.Net().StringFixed(2),
				o.Date,
			})
		}
	}
	return t
}

func ProductsTable(products []models.Product) *Table {
	t := &Table{Headers: []string{"Product ID", "Name", "Category", "Price", "Stock", "Status"}}
	for _, p := range products {
		t.Rows = append(t.Rows, []string{
			p.ID,
			p.Name,
			p.Category,
			p.Price.StringFixed(2),
			strconv.Itoa(p.Stock),
			string(p.Status),
		})
	}
	return t
}

// InventoryTable includes units sold and a stock level flag against threshold.
func InventoryTable(products []models.Product, threshold int) *Table {
	t := &Table{Headers: []string{"SKU", "Name", "Category", "Stock", "Units Sold", "Stock Level"}}
	for _, p := range products {
		t.Rows = append(t.Rows, []string{
			p.SKU,
			p.Name,
			p.Category,
			strconv.Itoa(p.Stock),
			strconv.Itoa(p.Sales),
			StockLevel(p.Stock, threshold),
		})
	}
	return t
}

// StockLevel classifies a stock count.
func StockLevel(stock, threshold int) string {
	switch {
	case stock <= 0:
		return "Out of Stock"
	case stock <= threshold:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

func CustomersTable(customers []models.Customer) *Table {
	t := &Table{Headers: []string{"Customer ID", "Name", "Email", "Orders", "Spent", "Last Order", "Tags"}}
	for _, c := range customers {
		t.Rows = append(t.Rows, []string{
			c.ID,
			c.Name,
			c.Email,
			strconv.Itoa(c.Orders),
			c.Spent.StringFixed(2),
			c.LastOrderDate,
			strings.Join(c.Tags, ", "),
		})
	}
	return t
}

func AbandonedCartsTable(carts []models.AbandonedCart) *Table {
	t := &Table{Headers: []string{"Checkout", "Customer", "Email", "Items", "Total Value", "Abandoned", "Last Activity"}}
	for _, c := range carts {
		names := make([]string, 0, len(c.Items))
		for _, item := range c.Items {
			names = append(names, item.Name)
		}
		t.Rows = append(t.Rows, []string{
			c.ID,
			c.CustomerName,
			c.Email,
			strings.Join(names, "; "),
			c.TotalValue.StringFixed(2),
			c.AbandonedDate,
			c.TimeAgo,
		})
	}
	return t
}

func DiscountsTable(codes []models.DiscountCode) *Table {
	t := &Table{Headers: []string{"Code", "Type", "Value", "Usage", "Status", "Expires"}}
	for _, d := range codes {
		t.Rows = append(t.Rows, []string{
			d.Code,
			string(d.DiscountType),
			d.Value.String(),
			strconv.Itoa(d.UsageCount),
			string(d.Status),
			d.ExpiryDate,
		})
	}
	return t
}

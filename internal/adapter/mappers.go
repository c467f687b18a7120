package adapter

import (
	"strconv"
	"strings"
	"time"

	"commerce-dashboard/internal/models"
	"commerce-dashboard/internal/upstream"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// parseMoney parses an upstream decimal string. Malformed values are errors, never NaN.
func parseMoney(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse %s %q", field, value)
	}
	return d, nil
}

// parseOptionalMoney treats an absent value as zero.
func parseOptionalMoney(field, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	return parseMoney(field, value)
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return idString(*id)
}

// MapOrder converts an upstream order into its display record.
func MapOrder(o upstream.Order, loc *time.Location) (models.Order, error) {
	total, err := parseMoney("total_price", o.TotalPrice)
	if err != nil {
		return models.Order{}, errors.Wrapf(err, "order %s", o.Name)
	}

	customerName := GuestName
	if o.Customer != nil {
		customerName = DisplayName(o.Customer.FirstName, o.Customer.LastName, o.Email, GuestName)
	}

	lineItems := make([]models.LineItem, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		price, err := parseMoney("line item price", item.Price)
		if err != nil {
			return models.Order{}, errors.Wrapf(err, "order %s", o.Name)
		}
		discount, err := parseOptionalMoney("line item total_discount", item.TotalDiscount)
		if err != nil {
			return models.Order{}, errors.Wrapf(err, "order %s", o.Name)
		}
		lineItems = append(lineItems, models.LineItem{
			ID:        idString(item.ID),
			ProductID: optionalID(item.ProductID),
			Name:      item.Title,
			Quantity:  item.Quantity,
			Price:     price,
			Discount:  discount,
		})
	}

	return models.Order{
		ID:            o.Name,
		CustomerName:  customerName,
		Total:         total,
		Status:        FulfillmentStatus(o.FulfillmentStatus),
		PaymentStatus: FinancialStatus(o.FinancialStatus),
		Date:          FormatDate(o.CreatedAt, loc),
		CreatedAt:     o.CreatedAt,
		Items:         len(o.LineItems),
		LandingSite:   LandingSite(o.LandingSite),
		Referrer:      ReferrerHost(o.ReferringSite),
		LineItems:     lineItems,
	}, nil
}

// MapOrders converts a page of upstream orders, failing on the first malformed record.
func MapOrders(orders []upstream.Order, loc *time.Location) ([]models.Order, error) {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		mapped, err := MapOrder(o, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return out, nil
}

// MapProduct converts an upstream product. Stock is the sum of variant inventory.
func MapProduct(p upstream.Product) (models.Product, error) {
	price := decimal.Zero
	sku := ""
	if len(p.Variants) > 0 {
		var err error
		if price, err = parseMoney("variant price", p.Variants[0].Price); err != nil {
			return models.Product{}, errors.Wrapf(err, "product %d", p.ID)
		}
		sku = p.Variants[0].SKU
	}

	stock := 0
	for _, v := range p.Variants {
		stock += v.InventoryQuantity
	}

	image := ProductPlaceholder
	if len(p.Images) > 0 && p.Images[0].Src != "" {
		image = p.Images[0].Src
	}

	return models.Product{
		ID:       idString(p.ID),
		Name:     p.Title,
		SKU:      sku,
		Price:    price,
		Stock:    stock,
		Category: Category(p.ProductType, p.Tags),
		Status:   ProductStatus(p.Status),
		Image:    image,
	}, nil
}

func MapProducts(products []upstream.Product) ([]models.Product, error) {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		mapped, err := MapProduct(p)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return out, nil
}

// MapCustomer converts an upstream customer. The last order date is approximated by the creation date.
func MapCustomer(c upstream.Customer, loc *time.Location) (models.Customer, error) {
	spent, err := parseMoney("total_spent", c.TotalSpent)
	if err != nil {
		return models.Customer{}, errors.Wrapf(err, "customer %d", c.ID)
	}

	return models.Customer{
		ID:            idString(c.ID),
		Name:          DisplayName(c.FirstName, c.LastName, c.Email, GuestCustomerName),
		Email:         c.Email,
		Orders:        c.OrdersCount,
		Spent:         spent,
		LastOrderDate: FormatDate(c.CreatedAt, loc),
		Tags:          Tags(c.Tags),
	}, nil
}

func MapCustomers(customers []upstream.Customer, loc *time.Location) ([]models.Customer, error) {
	out := make([]models.Customer, 0, len(customers))
	for _, c := range customers {
		mapped, err := MapCustomer(c, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return out, nil
}

// ProductImages indexes product images by product id for cart item lookups.
func ProductImages(products []models.Product) map[string]string {
	images := make(map[string]string, len(products))
	for _, p := range products {
		images[p.ID] = p.Image
	}
	return images
}

// MapCheckout converts an upstream abandoned checkout. timeAgo is relative to now.
func MapCheckout(c upstream.Checkout, images map[string]string, now time.Time, loc *time.Location) (models.AbandonedCart, error) {
	total, err := parseMoney("total_price", c.TotalPrice)
	if err != nil {
		return models.AbandonedCart{}, errors.Wrapf(err, "checkout %s", c.Token)
	}

	customerName := GuestName
	if c.Customer != nil {
		customerName = DisplayName(c.Customer.FirstName, c.Customer.LastName, c.Email, GuestName)
	}

	email := c.Email
	if email == "" {
		email = NoEmail
	}

	items := make([]models.CartItem, 0, len(c.LineItems))
	for _, item := range c.LineItems {
		price, err := parseMoney("line item price", item.Price)
		if err != nil {
			return models.AbandonedCart{}, errors.Wrapf(err, "checkout %s", c.Token)
		}
		image, ok := images[optionalID(item.ProductID)]
		if !ok || image == "" {
			image = CartItemPlaceholder
		}
		items = append(items, models.CartItem{Name: item.Title, Price: price, Image: image})
	}

	return models.AbandonedCart{
		ID:            c.Token,
		CustomerName:  customerName,
		Email:         email,
		Items:         items,
		ItemCount:     len(c.LineItems),
		TotalValue:    total,
		AbandonedDate: FormatDate(c.CreatedAt, loc),
		TimeAgo:       TimeAgo(c.UpdatedAt, now),
	}, nil
}

func MapCheckouts(checkouts []upstream.Checkout, images map[string]string, now time.Time, loc *time.Location) ([]models.AbandonedCart, error) {
	out := make([]models.AbandonedCart, 0, len(checkouts))
	for _, c := range checkouts {
		mapped, err := MapCheckout(c, images, now, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return out, nil
}

// MapPriceRule converts an upstream price rule into a discount code with its status at now.
func MapPriceRule(r upstream.PriceRule, now time.Time, loc *time.Location) (models.DiscountCode, error) {
	value, err := parseMoney("value", r.Value)
	if err != nil {
		return models.DiscountCode{}, errors.Wrapf(err, "price rule %d", r.ID)
	}

	expiry := NeverExpires
	if r.EndsAt != nil {
		expiry = FormatDate(*r.EndsAt, loc)
	}

	return models.DiscountCode{
		ID:           idString(r.ID),
		Code:         r.Title,
		DiscountType: DiscountType(r.ValueType),
		Value:        value.Abs(),
		UsageCount:   r.UsageCount,
		Status:       DiscountStatus(r.StartsAt, r.EndsAt, now),
		ExpiryDate:   expiry,
	}, nil
}

func MapPriceRules(rules []upstream.PriceRule, now time.Time, loc *time.Location) ([]models.DiscountCode, error) {
	out := make([]models.DiscountCode, 0, len(rules))
	for _, r := range rules {
		mapped, err := MapPriceRule(r, now, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped)
	}
	return out, nil
}

// Package adapter turns upstream commerce API records into the flat display
// records served by the dashboard, and aggregates them into chart series.
package adapter

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"commerce-dashboard/internal/models"
)

// Literal defaults used when every candidate value is empty.
const (
	GuestName            = "Guest"
	GuestCustomerName    = "Guest Customer"
	Uncategorized        = "Uncategorized"
	DirectReferrer       = "Direct"
	RootLandingSite      = "/"
	NoEmail              = "No email"
	NeverExpires         = "Never"
	ProductPlaceholder   = "https://placehold.co/100"
	CartItemPlaceholder  = "https://placehold.co/50"
	displayDateLayout    = "1/2/2006"
	upstreamPercentValue = "percentage"
)

// FulfillmentStatus maps the upstream fulfillment flag to a display status.
// Anything unrecognised, including a missing value, is Pending.
func FulfillmentStatus(status *string) models.OrderStatus {
	if status == nil {
		return models.OrderStatusPending
	}
	switch *status {
	case "fulfilled":
		return models.OrderStatusDelivered
	case "partial":
		return models.OrderStatusShipped
	default:
		return models.OrderStatusPending
	}
}

// KnownFulfillmentStatus reports whether FulfillmentStatus has an explicit mapping for status.
func KnownFulfillmentStatus(status *string) bool {
	return status == nil || *status == "fulfilled" || *status == "partial"
}

// FinancialStatus maps the upstream financial status to a display payment status.
func FinancialStatus(status string) models.PaymentStatus {
	switch status {
	case "paid":
		return models.PaymentStatusPaid
	case "pending":
		return models.PaymentStatusPending
	case "refunded":
		return models.PaymentStatusRefunded
	default:
		return models.PaymentStatusFailed
	}
}

// KnownFinancialStatus reports whether FinancialStatus has an explicit mapping for status.
func KnownFinancialStatus(status string) bool {
	return status == "paid" || status == "pending" || status == "refunded"
}

// DisplayName picks the first non-empty of "first last", the email local part and fallback.
func DisplayName(first, last, email, fallback string) string {
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	if local, _, _ := strings.Cut(email, "@"); local != "" {
		return local
	}
	return fallback
}

// Category returns the product type, else the first tag, else Uncategorized.
func Category(productType, tags string) string {
	if productType != "" {
		return productType
	}
	first, _, _ := strings.Cut(tags, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return Uncategorized
}

// Tags splits a comma separated tag string.
func Tags(tags string) []string {
	out := []string{}
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// ProductStatus maps an upstream product status; anything but "active" is a draft.
func ProductStatus(status string) models.ProductStatus {
	if status == "active" {
		return models.ProductStatusActive
	}
	return models.ProductStatusDraft
}

// ReferrerHost reduces a referring URL to its host name.
func ReferrerHost(site *string) string {
	if site == nil || strings.TrimSpace(*site) == "" {
		return DirectReferrer
	}
	u, err := url.Parse(strings.TrimSpace(*site))
	if err != nil || u.Hostname() == "" {
		return strings.TrimSpace(*site)
	}
	return u.Hostname()
}

// LandingSite returns the landing path, or the root path when it is missing.
func LandingSite(site *string) string {
	if site == nil || *site == "" {
		return RootLandingSite
	}
	return *site
}

// DiscountStatus derives the status of a price rule from its validity window at now.
func DiscountStatus(startsAt time.Time, endsAt *time.Time, now time.Time) models.DiscountStatus {
	if startsAt.After(now) {
		return models.DiscountStatusScheduled
	}
	if endsAt != nil && endsAt.Before(now) {
		return models.DiscountStatusExpired
	}
	return models.DiscountStatusActive
}

// DiscountType maps a price rule value type; anything but a percentage is a fixed amount.
func DiscountType(valueType string) models.DiscountType {
	if valueType == upstreamPercentValue {
		return models.DiscountTypePercentage
	}
	return models.DiscountTypeFixed
}

// TimeAgo renders the elapsed time between then and now in hours below a day, else days.
func TimeAgo(then, now time.Time) string {
	hours := int(now.Sub(then).Hours())
	if hours < 0 {
		hours = 0
	}
	if hours < 24 {
		return fmt.Sprintf("%d hours ago", hours)
	}
	return fmt.Sprintf("%d days ago", hours/24)
}

// FormatDate renders t as a short display date in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(displayDateLayout)
}

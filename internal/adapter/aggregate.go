package adapter

import (
	"sort"
	"time"

	"commerce-dashboard/internal/models"

	"github.com/shopspring/decimal"
)

const (
	dayKeyLayout   = "2006-01-02"
	dayLabelLayout = "Jan 2"
)

// SumTotals adds up order totals.
func SumTotals(orders []models.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.Total)
	}
	return sum
}

// Average divides sum by n; the average of nothing is zero.
func Average(sum decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DailySeries buckets order revenue and counts per calendar day over the days
// before end plus end's own day, so a 30-day window yields 31 buckets. Days without
// orders stay in the series with zero values.
func DailySeries(orders []models.Order, end time.Time, days int, loc *time.Location) []models.DailyPoint {
	if loc == nil {
		loc = time.UTC
	}
	if days < 0 {
		days = 0
	}

	last := startOfDay(end, loc)
	first := last.AddDate(0, 0, -days)

	points := make([]models.DailyPoint, 0, days+1)
	index := make(map[string]int, days+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayKeyLayout)
		index[key] = len(points)
		points = append(points, models.DailyPoint{
			Date:    key,
			Label:   d.Format(dayLabelLayout),
			Revenue: decimal.Zero,
		})
	}

	for _, o := range orders {
		i, ok := index[o.CreatedAt.In(loc).Format(dayKeyLayout)]
		if !ok {
			continue
		}
		points[i].Revenue = points[i].Revenue.Add(o.Total)
		points[i].Orders++
	}
	return points
}

// InWindow returns the orders created in [from, to).
func InWindow(orders []models.Order, from, to time.Time) []models.Order {
	var out []models.Order
	for _, o := range orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			out = append(out, o)
		}
	}
	return out
}

// Change compares current with previous as a percentage rounded to one decimal.
// Without a previous value there is no percentage, only a direction.
func Change(current, previous decimal.Decimal) (*float64, models.Trend) {
	if previous.IsZero() {
		if current.IsPositive() {
			return nil, models.TrendUp
		}
		return nil, models.TrendNeutral
	}

	pct, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	switch {
	case pct > 0:
		return &pct, models.TrendUp
	case pct < 0:
		return &pct, models.TrendDown
	default:
		return &pct, models.TrendNeutral
	}
}

// ProductStats groups all line items by product name, sorted by name.
func ProductStats(orders []models.Order) []models.ProductStat {
	byName := make(map[string]*models.ProductStat)
	for _, o := range orders {
		for _, item := range o.LineItems {
			stat, ok := byName[item.Name]
			if !ok {
				stat = &models.ProductStat{Name: item.Name, Revenue: decimal.Zero, Discount: decimal.Zero}
				byName[item.Name] = stat
			}
			stat.Quantity += item.Quantity
			stat.Revenue = stat.Revenue.Add(item.Net())
			stat.Discount = stat.Discount.Add(item.Discount)
		}
	}

	out := make([]models.ProductStat, 0, len(byName))
	for _, stat := range byName {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UnitsSold sums line item quantities per product id.
func UnitsSold(orders []models.Order) map[string]int {
	units := make(map[string]int)
	for _, o := range orders {
		for _, item := range o.LineItems {
			if item.ProductID != "" {
				units[item.ProductID] += item.Quantity
			}
		}
	}
	return units
}

// TopN returns the first n items ordered by less. The input is not modified and
// equal items keep their input order.
func TopN[T any](items []T, n int, less func(a, b T) bool) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// CountByStatus counts orders per display status. Every status is present.
func CountByStatus(orders []models.Order) map[models.OrderStatus]int {
	counts := make(map[models.OrderStatus]int, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		counts[s] = 0
	}
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts
}

// Tally counts occurrences of each key, most frequent first, ties by name.
func Tally(keys []string) []models.ChartPoint {
	counts := make(map[string]int)
	for _, k := range keys {
		counts[k]++
	}
	return sortedPoints(counts)
}

// StockByCategory sums product stock per category, largest first.
func StockByCategory(products []models.Product) []models.ChartPoint {
	stock := make(map[string]int)
	for _, p := range products {
		stock[p.Category] += p.Stock
	}
	return sortedPoints(stock)
}

func sortedPoints(values map[string]int) []models.ChartPoint {
	points := make([]models.ChartPoint, 0, len(values))
	for name, v := range values {
		points = append(points, models.ChartPoint{Name: name, Value: float64(v)})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Value != points[j].Value {
			return points[i].Value > points[j].Value
		}
		return points[i].Name < points[j].Name
	})
	return points
}

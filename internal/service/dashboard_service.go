package service

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"commerce-dashboard/internal/adapter"
	"commerce-dashboard/internal/export"
	"commerce-dashboard/internal/fetch"
	"commerce-dashboard/internal/models"
	"commerce-dashboard/internal/upstream"
	"commerce-dashboard/internal/util"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Funnel stages above checkout are not measured upstream; they are scaled from
// the next stage down.
const (
	addToCartMultiplier = 2.2
	viewMultiplier      = 2.1
)

// ErrUnknownView is returned for a view name that cannot be built or exported.
var ErrUnknownView = errors.New("unknown view")

// CommerceAPI is the read-only upstream the dashboard is built from.
type CommerceAPI interface {
	ListOrders(ctx context.Context) ([]upstream.Order, error)
	CountOrders(ctx context.Context) (int, error)
	ListProducts(ctx context.Context) ([]upstream.Product, error)
	CountProducts(ctx context.Context) (int, error)
	ListCustomers(ctx context.Context) ([]upstream.Customer, error)
	ListCheckouts(ctx context.Context) ([]upstream.Checkout, error)
	ListPriceRules(ctx context.Context) ([]upstream.PriceRule, error)
}

// Options tunes how views are computed.
type Options struct {
	Location          *time.Location
	WindowDays        int
	LowStockThreshold int
	Clock             func() time.Time
}

// DashboardService builds the dashboard views. Every call re-fetches from upstream.
type DashboardService struct {
	api               CommerceAPI
	loc               *time.Location
	windowDays        int
	lowStockThreshold int
	clock             func() time.Time
	logger            *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(api CommerceAPI, opts Options) *DashboardService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 30
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &DashboardService{
		api:               api,
		loc:               opts.Location,
		windowDays:        opts.WindowDays,
		lowStockThreshold: opts.LowStockThreshold,
		clock:             opts.Clock,
		logger:            util.GetLogger(),
	}
}

func (s *DashboardService) observe(view string, start time.Time) {
	util.ViewBuildLatency.WithLabelValues(view).Observe(time.Since(start).Seconds())
}

// loadOrders fetches and maps orders, counting status values that hit a catch-all mapping.
func (s *DashboardService) loadOrders(ctx context.Context) ([]models.Order, error) {
	raw, err := s.api.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range raw {
		if !adapter.KnownFulfillmentStatus(o.FulfillmentStatus) {
			util.UpstreamUnmappedStatusTotal.WithLabelValues("fulfillment_status").Inc()
			s.logger.Debug("Unmapped fulfillment status",
				zap.String("order", o.Name),
				zap.String("value", *o.FulfillmentStatus))
		}
		if !adapter.KnownFinancialStatus(o.FinancialStatus) {
			util.UpstreamUnmappedStatusTotal.WithLabelValues("financial_status").Inc()
			s.logger.Debug("Unmapped financial status",
				zap.String("order", o.Name),
				zap.String("value", o.FinancialStatus))
		}
	}
	return adapter.MapOrders(raw, s.loc)
}

func (s *DashboardService) loadProducts(ctx context.Context) ([]models.Product, error) {
	raw, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return adapter.MapProducts(raw)
}

func (s *DashboardService) loadCustomers(ctx context.Context) ([]models.Customer, error) {
	raw, err := s.api.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return adapter.MapCustomers(raw, s.loc)
}

func (s *DashboardService) loadDiscounts(now time.Time) func(context.Context) ([]models.DiscountCode, error) {
	return func(ctx context.Context) ([]models.DiscountCode, error) {
		raw, err := s.api.ListPriceRules(ctx)
		if err != nil {
			return nil, err
		}
		return adapter.MapPriceRules(raw, now, s.loc)
	}
}

func (s *DashboardService) mapCarts(checkouts *fetch.Section[upstream.Checkout], products *fetch.Section[models.Product], now time.Time) *fetch.Section[models.AbandonedCart] {
	images := adapter.ProductImages(products.Items)
	return fetch.Then(checkouts, func(raw []upstream.Checkout) ([]models.AbandonedCart, error) {
		return adapter.MapCheckouts(raw, images, now, s.loc)
	})
}

func newestFirst(a, b models.Order) bool {
	return a.CreatedAt.After(b.CreatedAt)
}

func byRevenue(a, b models.ProductStat) bool {
	return a.Revenue.GreaterThan(b.Revenue)
}

func byQuantity(a, b models.ProductStat) bool {
	return a.Quantity > b.Quantity
}

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Overview builds the landing page: KPI cards, revenue series, top products and recent orders.
func (s *DashboardService) Overview(ctx context.Context) (*OverviewView, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Overview")
	defer span.End()
	defer s.observe(ViewOverview, time.Now())

	now := s.clock()
	g := fetch.NewGroup(ctx, ViewOverview)
	orderCount := fetch.One(g, "orders_count", s.api.CountOrders)
	productCount := fetch.One(g, "products_count", s.api.CountProducts)
	orders := fetch.List(g, "orders", s.loadOrders)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &OverviewView{Sections: Sections{}}
	addValue(view.Sections, "ordersCount", orderCount)
	addValue(view.Sections, "productsCount", productCount)
	addSection(view.Sections, "orders", orders)

	view.Revenue = adapter.SumTotals(orders.Items)
	view.AverageOrderValue = adapter.Average(view.Revenue, len(orders.Items))
	view.TotalOrders = orderCount.Value
	view.TotalProducts = productCount.Value
	view.RevenueSeries = adapter.DailySeries(orders.Items, now, s.windowDays, s.loc)
	view.TopProducts = adapter.TopN(adapter.ProductStats(orders.Items), 5, byRevenue)
	view.RecentOrders = adapter.TopN(orders.Items, 5, newestFirst)
	view.KPIs = s.overviewKPIs(view, orders.Items, now)
	return view, nil
}

// overviewKPIs compares the current window with the one before it.
func (s *DashboardService) overviewKPIs(view *OverviewView, orders []models.Order, now time.Time) []models.KPI {
	currentStart := now.AddDate(0, 0, -s.windowDays)
	previousStart := currentStart.AddDate(0, 0, -s.windowDays)
	current := adapter.InWindow(orders, currentStart, now)
	previous := adapter.InWindow(orders, previousStart, currentStart)

	curRevenue, prevRevenue := adapter.SumTotals(current), adapter.SumTotals(previous)
	revenueChange, revenueTrend := adapter.Change(curRevenue, prevRevenue)
	ordersChange, ordersTrend := adapter.Change(decimal.NewFromInt(int64(len(current))), decimal.NewFromInt(int64(len(previous))))
	aovChange, aovTrend := adapter.Change(
		adapter.Average(curRevenue, len(current)),
		adapter.Average(prevRevenue, len(previous)),
	)

	return []models.KPI{
		{Label: "Total Revenue", Value: formatMoney(view.Revenue), Change: revenueChange, Trend: revenueTrend},
		{Label: "Orders", Value: strconv.Itoa(view.TotalOrders), Change: ordersChange, Trend: ordersTrend},
		{Label: "Avg. Order Value", Value: formatMoney(view.AverageOrderValue), Change: aovChange, Trend: aovTrend},
		{Label: "Products", Value: strconv.Itoa(view.TotalProducts)},
	}
}

func parseOrderStatus(status string) (models.OrderStatus, bool) {
	for _, st := range models.OrderStatuses {
		if strings.EqualFold(status, string(st)) {
			return st, true
		}
	}
	return "", false
}

// Orders lists orders newest first, filtered by display status and search term.
func (s *DashboardService) Orders(ctx context.Context, q ListQuery) (*OrdersView, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Orders")
	defer span.End()
	defer s.observe(ViewOrders, time.Now())

	var status models.OrderStatus
	if !q.allStatuses() {
		st, ok := parseOrderStatus(q.Status)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidQuery, "unknown order status %q", q.Status)
		}
		status = st
	}

	g := fetch.NewGroup(ctx, ViewOrders)
	orders := fetch.List(g, "orders", s.loadOrders)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matched := filter(orders.Items, func(o models.Order) bool {
		return (status == "" || o.Status == status) && q.matches(o.ID, o.CustomerName)
	})
	matched = adapter.TopN(matched, -1, newestFirst)

	view := &OrdersView{
		Sections:     Sections{},
		Orders:       paginate(matched, q),
		StatusCounts: adapter.CountByStatus(orders.Items),
	}
	addSection(view.Sections, "orders", orders)
	return view, nil
}

func orderItemRows(orders []models.Order) []OrderItemRow {
	var rows []OrderItemRow
	for _, o := range orders {
		for _, item := range o.LineItems {
			rows = append(rows, OrderItemRow{
				OrderID:     o.ID,
				ID:          item.ID,
				ProductName: item.Name,
				Quantity:    item.Quantity,
				Price:       item.Price,
				Discount:    item.Discount,
				NetRevenue:  item.Net(),
				Date:        o.Date,
			})
		}
	}
	return rows
}

// OrderItems flattens order line items and ranks products by units and revenue.
func (s *DashboardService) OrderItems(ctx context.Context, q ListQuery) (*OrderItemsView, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.OrderItems")
	defer span.End()
	defer s.observe(ViewOrderItems, time.Now())

	g := fetch.NewGroup(ctx, ViewOrderItems)
	orders := fetch.List(g, "orders", s.loadOrders)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sorted := adapter.TopN(orders.Items, -1, newestFirst)
	rows := orderItemRows(sorted)

	view := &OrderItemsView{Sections: Sections{}, NetRevenue: decimal.Zero}
	addSection(view.Sections, "orders", orders)
	for _, r := range rows {
		view.TotalUnits += r.Quantity
		view.NetRevenue = view.NetRevenue.Add(r.NetRevenue)
	}

	view.Items = paginate(filter(rows, func(r OrderItemRow) bool {
		return q.matches(r.ProductName, r.OrderID)
	}), q)

	stats := adapter.ProductStats(orders.Items)
	view.MostSold = adapter.TopN(stats, 6, byQuantity)
	view.RevenueByProduct = adapter.TopN(stats, 10, byRevenue)
	return view, nil
}

func parseProductStatus(status string) (models.ProductStatus, bool) {
	for _, st := range []models.ProductStatus{models.ProductStatusActive, models.ProductStatusDraft} {
		if strings.EqualFold(status, string(st)) {
			return st, true
		}
	}
	return "", false
}

func categories(products []models.Product) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range products {
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Products lists the catalogue filtered by search, category and status.
func (s *DashboardService) Products(ctx context.Context, q ListQuery) (*ProductsView, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Products")
	defer span.End()
	defer s.observe(ViewProducts, time.Now())

	var status models.ProductStatus
	if !q.allStatuses() {
		st, ok := parseProductStatus(q.Status)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidQuery, "unknown product status %q", q.Status)
		}
		status = st
	}

	g := fetch.NewGroup(ctx, ViewProducts)
	products := fetch.List(g, "products", s.loadProducts)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matched := filter(products.Items, func(p models.Product) bool {
		if status != "" && p.Status != status {
			return false
		}
		if q.Category != "" && !strings.EqualFold(q.Category, p.Category) {
			return false
		}
		return q.matches(p.Name, p.Category, p.SKU)
	})

	view := &ProductsView{
		Sections:   Sections{},
		Products:   paginate(matched, q),
		Categories: categories(products.Items),
	}
	addSection(view.Sections, "products", products)
	return view, nil
}

func withSales(products []models.Product, orders []models.Order) []models.Product {
	units := adapter.UnitsSold(orders)
	out := make([]models.Product, len(products))
	for i, p := range products {
		p.Sales = units[p.ID]
		out[i] = p
	}
	return out
}

func salesPoints(products []models.Product) []models.ChartPoint {
	points := make([]models.ChartPoint, 0, len(products))
	for _, p := range products {
		points = append(points, models.ChartPoint{Name: p.Name, Value: float64(p.Sales)})
	}
	return points
}

// Inventory reports stock health and the fastest and slowest moving products.
func (s *DashboardService) Inventory(ctx context.Context) (*InventoryView, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Inventory")
	defer span.End()
	defer s.observe(ViewInventory, time.Now())

	g := fetch.NewGroup(ctx, ViewInventory)
	products := fetch.List(g, "products", s.loadProducts)
	orders := fetch.List(g, "orders", s.loadOrders)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := withSales(products.Items, orders.Items)
	view := &InventoryView{
		Sections:          Sections{},
		TotalSKUs:         len(items),
		LowStockThreshold: s.lowStockThreshold,
		StockByCategory:   adapter.StockByCategory(items),
		Items:             items,
	}
	addSection(view.Sections, "products", products)
	addSection(view.Sections, "orders", orders)

	for _, p := range items {
		switch {
		case p.Stock <= 0:
			view.OutOfStock++
		case p.Stock <= s.lowStockThreshold:
			view.LowStock++
		}
	}

	view.FastMoving = salesPoints(adapter.TopN(items, 5, func(a, b models.Product) bool { return a.Sales > b.Sales }))
	view.SlowMoving = salesPoints(adapter.TopN(items, 5, func(a, b models.Product) bool { return a.Sales < b.Sales }))
	return view, nil
}

// Fulfillment groups orders by display status.
func (s *DashboardService) Fulfillment(ctx context.Context) (*FulfillmentView, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Fulfillment")
	defer span.End()
	defer s.observe(ViewFulfillment, time.Now())

	g := fetch.NewGroup(ctx, ViewFulfillment)
	orders := fetch.List(g, "orders", s.loadOrders)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := adapter.CountByStatus(orders.Items)
	view := &FulfillmentView{
		Sections:     Sections{},
		StatusCounts: counts,
		Orders:       adapter.TopN(orders.Items, -1, newestFirst),
	}
	addSection(view.Sections, "orders", orders)
	for _, st := range models.OrderStatuses {
		view.Distribution = append(view.Distribution, models.ChartPoint{Name: string(st), Value: float64(counts[st])})
	}
	return view, nil
}

// AbandonedCarts lists checkouts that never became orders. Product images are
// optional: when products fail to load the carts keep placeholder images.
func (s *DashboardService) AbandonedCarts(ctx context.Context) (*AbandonedCartsView, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.AbandonedCarts")
	defer span.End()
	defer s.observe(ViewAbandonedCarts, time.Now())

	now := s.clock()
	g := fetch.NewGroup(ctx, ViewAbandonedCarts)
	checkouts := fetch.List(g, "checkouts", s.api.ListCheckouts)
	products := fetch.List(g, "products", s.loadProducts)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	carts := s.mapCarts(checkouts, products, now)
	view := &AbandonedCartsView{
		Sections:         Sections{},
		Carts:            carts.Items,
		Sessions:         len(carts.Items),
		PotentialRevenue: decimal.Zero,
	}
	addSection(view.Sections, "checkouts", carts)
	addSection(view.Sections, "products", products)

	for _, c := range carts.Items {
		view.PotentialRevenue = view.PotentialRevenue.Add(c.TotalValue)
	}
	view.AverageCartValue = adapter.Average(view.PotentialRevenue, view.Sessions)
	return view, nil
}

// Customers lists customers filtered by search term and tag.
func (s *DashboardService) Customers(ctx context.Context, q ListQuery) (*CustomersView, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Customers")
	defer span.End()
	defer s.observe(ViewCustomers, time.Now())

	g := fetch.NewGroup(ctx, ViewCustomers)
	customers := fetch.List(g, "customers", s.loadCustomers)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &CustomersView{Sections: Sections{}, TotalSpent: decimal.Zero, Tags: []string{}}
	addSection(view.Sections, "customers", customers)

	seen := make(map[string]struct{})
	for _, c := range customers.Items {
		view.TotalSpent = view.TotalSpent.Add(c.Spent)
		if c.Orders > 1 {
			view.RepeatCustomers++
		}
		for _, tag := range c.Tags {
			if _, ok := seen[tag]; !ok {
				seen[tag] = struct{}{}
				view.Tags = append(view.Tags, tag)
			}
		}
	}
	sort.Strings(view.Tags)
	view.TotalCustomers = len(customers.Items)
	view.AverageSpent = adapter.Average(view.TotalSpent, view.TotalCustomers)

	view.Customers = paginate(filter(customers.Items, func(c models.Customer) bool {
		return hasTag(c.Tags, q.Tag) && q.matches(c.Name, c.Email)
	}), q)
	return view, nil
}

func hasTag(tags []string, want string) bool {
	if want == "" {
		return true
	}
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

func dropoff(prev, cur int) float64 {
	if prev <= 0 {
		return 0
	}
	return math.Round((1 - float64(cur)/float64(prev)) * 100)
}

// Funnel estimates the purchase funnel from the order count and abandoned checkouts.
func (s *DashboardService) Funnel(ctx context.Context) (*FunnelView, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Funnel")
	defer span.End()
	defer s.observe(ViewFunnel, time.Now())

	g := fetch.NewGroup(ctx, ViewFunnel)
	orderCount := fetch.One(g, "orders_count", s.api.CountOrders)
	checkouts := fetch.List(g, "checkouts", s.api.ListCheckouts)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	purchases := orderCount.Value
	checkout := purchases + len(checkouts.Items)
	addToCart := int(math.Round(float64(checkout) * addToCartMultiplier))
	views := int(math.Round(float64(addToCart) * viewMultiplier))

	steps := []FunnelStep{
		{Name: "View Product", Value: views, Estimated: true},
		{Name: "Add to Cart", Value: addToCart, Estimated: true},
		{Name: "Checkout", Value: checkout},
		{Name: "Purchase", Value: purchases},
	}
	for i := 1; i < len(steps); i++ {
		steps[i].Dropoff = dropoff(steps[i-1].Value, steps[i].Value)
	}

	view := &FunnelView{Sections: Sections{}, Steps: steps}
	addValue(view.Sections, "ordersCount", orderCount)
	addSection(view.Sections, "checkouts", checkouts)
	return view, nil
}

// Traffic attributes orders to landing pages and referring hosts.
func (s *DashboardService) Traffic(ctx context.Context) (*TrafficView, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Traffic")
	defer span.End()
	defer s.observe(ViewTraffic, time.Now())

	now := s.clock()
	g := fetch.NewGroup(ctx, ViewTraffic)
	orders := fetch.List(g, "orders", s.loadOrders)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	landing := make([]string, 0, len(orders.Items))
	referrers := make([]string, 0, len(orders.Items))
	view := &TrafficView{Sections: Sections{}}
	addSection(view.Sections, "orders", orders)
	for _, o := range orders.Items {
		landing = append(landing, o.LandingSite)
		referrers = append(referrers, o.Referrer)
		if o.Referrer != adapter.DirectReferrer {
			view.AttributedOrders++
		}
	}

	view.LandingPages = adapter.TopN(adapter.Tally(landing), 10, noReorder)
	view.Referrers = adapter.TopN(adapter.Tally(referrers), 10, noReorder)
	view.OrdersSeries = adapter.DailySeries(orders.Items, now, s.windowDays, s.loc)
	return view, nil
}

// noReorder keeps an already ranked series in place when truncating it.
func noReorder(_, _ models.ChartPoint) bool {
	return false
}

// estimatedDiscountValue approximates what a code gave away: usage times the
// percentage of the average order, or usage times the fixed amount.
func estimatedDiscountValue(code models.DiscountCode, aov decimal.Decimal) decimal.Decimal {
	usage := decimal.NewFromInt(int64(code.UsageCount))
	if code.DiscountType == models.DiscountTypePercentage {
		return usage.Mul(aov).Mul(code.Value).Div(decimal.NewFromInt(100))
	}
	return usage.Mul(code.Value)
}

// Discounts lists price rules with usage and estimated value given away.
func (s *DashboardService) Discounts(ctx context.Context) (*DiscountsView, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Discounts")
	defer span.End()
	defer s.observe(ViewDiscounts, time.Now())

	now := s.clock()
	g := fetch.NewGroup(ctx, ViewDiscounts)
	codes := fetch.List(g, "priceRules", s.loadDiscounts(now))
	orders := fetch.List(g, "orders", s.loadOrders)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &DiscountsView{
		Sections:               Sections{},
		Codes:                  codes.Items,
		TotalCodes:             len(codes.Items),
		AverageOrderValue:      adapter.Average(adapter.SumTotals(orders.Items), len(orders.Items)),
		EstimatedDiscountValue: decimal.Zero,
	}
	addSection(view.Sections, "priceRules", codes)
	addSection(view.Sections, "orders", orders)

	for _, c := range codes.Items {
		view.TotalUsage += c.UsageCount
		if c.Status == models.DiscountStatusActive {
			view.ActiveCodes++
		}
		view.EstimatedDiscountValue = view.EstimatedDiscountValue.Add(estimatedDiscountValue(c, view.AverageOrderValue))
	}
	return view, nil
}

type failable interface {
	Err() error
	Failed() bool
}

func firstFailure(sections map[string]failable) error {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if s := sections[name]; s.Failed() {
			return errors.Wrapf(s.Err(), "fetch %s", name)
		}
	}
	return nil
}

// ExportTable builds the full CSV table of an exportable view. Unlike the views,
// an export fails as a whole when any section it needs failed.
func (s *DashboardService) ExportTable(ctx context.Context, view string) (*export.Table, error) {
	if !export.IsView(view) {
		return nil, errors.Wrapf(ErrUnknownView, "%q", view)
	}

	ctx, span := util.StartSpan(ctx, "DashboardService.ExportTable")
	defer span.End()

	now := s.clock()
	g := fetch.NewGroup(ctx, "export")
	needed := map[string]failable{}

	var (
		orders    *fetch.Section[models.Order]
		products  *fetch.Section[models.Product]
		customers *fetch.Section[models.Customer]
		checkouts *fetch.Section[upstream.Checkout]
		codes     *fetch.Section[models.DiscountCode]
	)
	switch view {
	case export.ViewOrders, export.ViewOrderItems:
		orders = fetch.List(g, "orders", s.loadOrders)
		needed["orders"] = orders
	case export.ViewInventory:
		orders = fetch.List(g, "orders", s.loadOrders)
		products = fetch.List(g, "products", s.loadProducts)
		needed["orders"], needed["products"] = orders, products
	case export.ViewProducts:
		products = fetch.List(g, "products", s.loadProducts)
		needed["products"] = products
	case export.ViewCustomers:
		customers = fetch.List(g, "customers", s.loadCustomers)
		needed["customers"] = customers
	case export.ViewAbandonedCarts:
		checkouts = fetch.List(g, "checkouts", s.api.ListCheckouts)
		products = fetch.List(g, "products", s.loadProducts)
		needed["checkouts"] = checkouts
	case export.ViewDiscounts:
		codes = fetch.List(g, "priceRules", s.loadDiscounts(now))
		needed["priceRules"] = codes
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := firstFailure(needed); err != nil {
		util.SpanError(span, err)
		return nil, err
	}

	switch view {
	case export.ViewOrders:
		return export.OrdersTable(adapter.TopN(orders.Items, -1, newestFirst)), nil
	case export.ViewOrderItems:
		return export.OrderItemsTable(adapter.TopN(orders.Items, -1, newestFirst)), nil
	case export.ViewInventory:
		return export.InventoryTable(withSales(products.Items, orders.Items), s.lowStockThreshold), nil
	case export.ViewProducts:
		return export.ProductsTable(products.Items), nil
	case export.ViewCustomers:
		return export.CustomersTable(customers.Items), nil
	case export.ViewAbandonedCarts:
		carts := s.mapCarts(checkouts, products, now)
		if carts.Failed() {
			return nil, errors.Wrap(carts.Err(), "map checkouts")
		}
		return export.AbandonedCartsTable(carts.Items), nil
	default:
		return export.DiscountsTable(codes.Items), nil
	}
}

package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"commerce-dashboard/internal/util"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Resource paths, relative to the admin API root.
const (
	pathOrders      = "/orders.json?status=any&limit=250"
	pathOrdersCount = "/orders/count.json?status=any"
	pathProducts    = "/products.json?limit=250"
	pathProductsCnt = "/products/count.json"
	pathCustomers   = "/customers.json?limit=250"
	pathCheckouts   = "/checkouts.json?limit=50"
	pathPriceRules  = "/price_rules.json?limit=50"
)

// AccessTokenHeader carries the static admin API token.
const AccessTokenHeader = "X-Shopify-Access-Token"

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Resource   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Resource, e.StatusCode)
}

// Client is a read-only client for the commerce admin REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new API client rooted at baseURL
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: util.GetLogger(),
	}
}

// ListOrders fetches up to 250 orders of any status
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var env struct {
		Orders []Order `json:"orders"`
	}
	if err := c.get(ctx, "orders", pathOrders, &env); err != nil {
		return nil, err
	}
	return env.Orders, nil
}

// CountOrders returns the total number of orders of any status
func (c *Client) CountOrders(ctx context.Context) (int, error) {
	return c.count(ctx, "orders_count", pathOrdersCount)
}

// ListProducts fetches up to 250 products
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var env struct {
		Products []Product `json:"products"`
	}
	if err := c.get(ctx, "products", pathProducts, &env); err != nil {
		return nil, err
	}
	return env.Products, nil
}

// CountProducts returns the total number of products
func (c *Client) CountProducts(ctx context.Context) (int, error) {
	return c.count(ctx, "products_count", pathProductsCnt)
}

// ListCustomers fetches up to 250 customers
func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	var env struct {
		Customers []Customer `json:"customers"`
	}
	if err := c.get(ctx, "customers", pathCustomers, &env); err != nil {
		return nil, err
	}
	return env.Customers, nil
}

// ListCheckouts fetches up to 50 abandoned checkouts
func (c *Client) ListCheckouts(ctx context.Context) ([]Checkout, error) {
	var env struct {
		Checkouts []Checkout `json:"checkouts"`
	}
	if err := c.get(ctx, "checkouts", pathCheckouts, &env); err != nil {
		return nil, err
	}
	return env.Checkouts, nil
}

// ListPriceRules fetches up to 50 price rules
func (c *Client) ListPriceRules(ctx context.Context) ([]PriceRule, error) {
	var env struct {
		PriceRules []PriceRule `json:"price_rules"`
	}
	if err := c.get(ctx, "price_rules", pathPriceRules, &env); err != nil {
		return nil, err
	}
	return env.PriceRules, nil
}

func (c *Client) count(ctx context.Context, resource, path string) (int, error) {
	var env struct {
		Count int `json:"count"`
	}
	if err := c.get(ctx, resource, path, &env); err != nil {
		return 0, err
	}
	return env.Count, nil
}

// get issues one GET request and decodes the JSON envelope into out.
func (c *Client) get(ctx context.Context, resource, path string, out interface{}) (err error) {
	ctx, span := util.StartSpan(ctx, "upstream.Get")
	defer span.End()
	span.SetAttributes(attribute.String("upstream.resource", resource))

	start := time.Now()
	status := "error"
	defer func() {
		util.UpstreamRequestLatency.WithLabelValues(resource).Observe(time.Since(start).Seconds())
		util.UpstreamRequestsTotal.WithLabelValues(resource, status).Inc()
		util.SpanError(span, err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set(AccessTokenHeader, c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "get %s", resource)
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Resource: resource, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s", resource)
	}

	c.logger.Debug("Upstream request completed",
		zap.String("resource", resource),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

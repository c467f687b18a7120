package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"commerce-dashboard/internal/export"
	"commerce-dashboard/internal/service"
	"commerce-dashboard/internal/store"
	"commerce-dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// statusClientClosedRequest is answered when the caller went away before the view was built.
const statusClientClosedRequest = 499

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	dashboard *service.DashboardService
	exports   *service.ExportService
	deps      map[string]Pinger
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler. exports may be nil, in which case the
// export job routes answer 503.
func NewHandler(dashboard *service.DashboardService, exports *service.ExportService, deps map[string]Pinger) *Handler {
	return &Handler{
		dashboard: dashboard,
		exports:   exports,
		deps:      deps,
		logger:    util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/overview", h.overview)
		v1.GET("/orders", h.orders)
		v1.GET("/order-items", h.orderItems)
		v1.GET("/products", h.products)
		v1.GET("/inventory", h.inventory)
		v1.GET("/fulfillment", h.fulfillment)
		v1.GET("/abandoned-carts", h.abandonedCarts)
		v1.GET("/customers", h.customers)
		v1.GET("/funnel", h.funnel)
		v1.GET("/traffic", h.traffic)
		v1.GET("/discounts", h.discounts)

		v1.GET("/csv/:view", h.downloadCSV)

		v1.POST("/exports", h.requestExport)
		v1.GET("/exports", h.listExports)
		v1.GET("/exports/:id", h.getExport)
		v1.GET("/exports/:id/file", h.downloadExport)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every backing dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respond writes a built view, or maps its error to a status code
func (h *Handler) respond(c *gin.Context, view interface{}, err error) {
	if err == nil {
		c.JSON(http.StatusOK, view)
		return
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.AbortWithStatus(statusClientClosedRequest)
	case errors.Is(err, service.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query",
			"details": err.Error(),
		})
	case errors.Is(err, service.ErrUnknownView):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Unknown view",
			"details": err.Error(),
		})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"details": err.Error(),
		})
	}
}

func bindQuery(c *gin.Context) (service.ListQuery, bool) {
	var q service.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query",
			"details": err.Error(),
		})
		return q, false
	}
	return q, true
}

func (h *Handler) overview(c *gin.Context) {
	view, err := h.dashboard.Overview(c.Request.Context())
	h.respond(c, view, err)
}

func (h *Handler) orders(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	view, err := h.dashboard.Orders(c.Request.Context(), q)
	h.respond(c, view, err)
}

func (h *Handler) orderItems(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	view, err := h.dashboard.OrderItems(c.Request.Context(), q)
	h.respond(c, view, err)
}

func (h *Handler) products(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	view, err := h.dashboard.Products(c.Request.Context(), q)
	h.respond(c, view, err)
}

func (h *Handler) inventory(c *gin.Context) {
	view, err := h.dashboard.Inventory(c.Request.Context())
	h.respond(c, view, err)
}

func (h *Handler) fulfillment(c *gin.Context) {
	view, err := h.dashboard.Fulfillment(c.Request.Context())
	h.respond(c, view, err)
}

func (h *Handler) abandonedCarts(c *gin.Context) {
	view, err := h.dashboard.AbandonedCarts(c.Request.Context())
	h.respond(c, view, err)
}

func (h *Handler) customers(c *gin.Context) {
	q, ok := bindQuery(c)
	if !ok {
		return
	}
	view, err := h.dashboard.Customers(c.Request.Context(), q)
	h.respond(c, view, err)
}

func (h *Handler) funnel(c *gin.Context) {
	view, err := h.dashboard.Funnel(c.Request.Context())
	h.respond(c, view, err)
}

func (h *Handler) traffic(c *gin.Context) {
	view, err := h.dashboard.Traffic(c.Request.Context())
	h.respond(c, view, err)
}

func (h *Handler) discounts(c *gin.Context) {
	view, err := h.dashboard.Discounts(c.Request.Context())
	h.respond(c, view, err)
}

func writeCSV(c *gin.Context, view string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(view)+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// downloadCSV renders an export synchronously
func (h *Handler) downloadCSV(c *gin.Context) {
	view := c.Param("view")
	table, err := h.dashboard.ExportTable(c.Request.Context(), view)
	if err != nil {
		if errors.Is(err, service.ErrUnknownView) || c.Request.Context().Err() != nil {
			h.respond(c, nil, err)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Upstream data unavailable",
			"details": err.Error(),
		})
		return
	}

	data, err := table.Bytes()
	if err != nil {
		h.respond(c, nil, err)
		return
	}
	writeCSV(c, view, data)
}

// ExportRequest represents a request to queue a CSV export
type ExportRequest struct {
	View string `json:"view" binding:"required"`
}

func (h *Handler) exportsEnabled(c *gin.Context) bool {
	if h.exports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Async exports are disabled",
		})
		return false
	}
	return true
}

func (h *Handler) requestExport(c *gin.Context) {
	if !h.exportsEnabled(c) {
		return
	}

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	job, err := h.exports.Request(c.Request.Context(), req.View)
	if err != nil {
		h.respond(c, nil, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (h *Handler) listExports(c *gin.Context) {
	if !h.exportsEnabled(c) {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid limit",
		})
		return
	}

	jobs, err := h.exports.List(c.Request.Context(), limit)
	h.respond(c, gin.H{"jobs": jobs}, err)
}

func (h *Handler) getExport(c *gin.Context) {
	if !h.exportsEnabled(c) {
		return
	}

	job, err := h.exports.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Export not found",
		})
		return
	}
	h.respond(c, job, err)
}

func (h *Handler) downloadExport(c *gin.Context) {
	if !h.exportsEnabled(c) {
		return
	}

	job, data, err := h.exports.Download(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		writeCSV(c, job.View, data)
	case errors.Is(err, store.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Export not found",
		})
	case errors.Is(err, service.ErrExportNotReady):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Export not ready",
			"job":   job,
		})
	case errors.Is(err, service.ErrExportExpired):
		c.JSON(http.StatusGone, gin.H{
			"error": "Export expired",
			"job":   job,
		})
	default:
		h.respond(c, nil, err)
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// internal/api/api.go
package api

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/scil-audit/scil-go/internal/conf"
	"github.com/scil-audit/scil-go/internal/datastore"
	"github.com/scil-audit/scil-go/internal/disposition"
	"github.com/scil-audit/scil-go/internal/entity"
	"github.com/scil-audit/scil-go/internal/errors"
	"github.com/scil-audit/scil-go/internal/ingest"
	"github.com/scil-audit/scil-go/internal/logging"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings
	Catalog  *entity.Catalog

	tracker *disposition.Tracker
	parser  *ingest.Parser

	// sessions maps bearer tokens to logged-in users; crossrefCache
	// memoizes the full-scan detection between ingests.
	sessions      *cache.Cache
	crossrefCache *cache.Cache

	apiLogger *slog.Logger
}

// New creates the API controller and registers all routes under /api/v2.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings, catalog *entity.Catalog) *Controller {
	sessionTTL := time.Duration(settings.WebServer.SessionTTLMin) * time.Minute
	if sessionTTL <= 0 {
		sessionTTL = 8 * time.Hour
	}

	c := &Controller{
		Echo:          e,
		Group:         e.Group("/api/v2"),
		DS:            ds,
		Settings:      settings,
		Catalog:       catalog,
		tracker:       disposition.NewTracker(ds, catalog),
		parser:        ingest.NewParser(ds, catalog),
		sessions:      cache.New(sessionTTL, 10*time.Minute),
		crossrefCache: cache.New(5*time.Minute, 10*time.Minute),
		apiLogger:     logging.ForService("api"),
	}

	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints.
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	routeInitializers := []struct {
		name string
		fn   func()
	}{
		{"auth routes", c.initAuthRoutes},
		{"ingest routes", c.initIngestRoutes},
		{"crossref routes", c.initCrossrefRoutes},
		{"disposition routes", c.initDispositionRoutes},
		{"entity routes", c.initEntityRoutes},
		{"export routes", c.initExportRoutes},
	}
	for _, initializer := range routeInitializers {
		initializer.fn()
		c.apiLogger.Debug("initialized route group", "group", initializer.name)
	}
}

// HealthCheck handles the API health check endpoint.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	response := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}

	dbStatus := "connected"
	if _, err := c.DS.ListEntities(); err != nil {
		dbStatus = "disconnected"
		response["database_error"] = err.Error()
	}
	response["database_status"] = dbStatus

	return ctx.JSON(http.StatusOK, response)
}

// ErrorResponse is the standard API error payload.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a unique identifier for error tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError constructs and returns an appropriate error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	errorStr := message
	category := errors.CategoryGeneric
	if err != nil {
		errorStr = err.Error()
		category = errors.CategoryOf(err)
	}
	c.apiLogger.Error("API error",
		"correlation_id", errorResp.CorrelationID,
		"message", message,
		"error", errorStr,
		"category", string(category),
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)

	return ctx.JSON(code, errorResp)
}

// invalidateCrossrefCache drops memoized detection results; called after
// every write that can change what the detector sees.
func (c *Controller) invalidateCrossrefCache() {
	c.crossrefCache.Flush()
}

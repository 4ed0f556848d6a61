// internal/api/entities.go
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/scil-audit/scil-go/internal/datastore"
	"github.com/scil-audit/scil-go/internal/entity"
	"github.com/scil-audit/scil-go/internal/errors"
)

// initEntityRoutes registers catalog listing and registry mutations.
func (c *Controller) initEntityRoutes() {
	c.Group.GET("/entities", c.ListEntities)
	c.Group.POST("/entities", c.SaveEntity, c.RequireSession)
	c.Group.PUT("/entities/:key", c.SaveEntity, c.RequireSession)
	c.Group.DELETE("/entities/:key", c.DeactivateEntity, c.RequireSession)
}

// ListEntities returns the active catalog in hierarchy order, optionally
// filtered by ?kind=ORGANIZATION|MUNICIPALITY.
func (c *Controller) ListEntities(ctx echo.Context) error {
	kind := entity.Kind(strings.ToUpper(strings.TrimSpace(ctx.QueryParam("kind"))))
	return ctx.JSON(http.StatusOK, c.Catalog.Entities(kind))
}

type entityRequest struct {
	Num     string `json:"num"`
	Key     string `json:"key"`
	Name    string `json:"name"`
	Acronym string `json:"acronym"`
	Kind    string `json:"kind"`
	Active  *bool  `json:"active"`
}

// SaveEntity creates or updates a registry row and rebuilds the catalog in
// the same request, so subsequent reads resolve the new aliases.
func (c *Controller) SaveEntity(ctx echo.Context) error {
	var req entityRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid entity request", http.StatusBadRequest)
	}
	if key := ctx.Param("key"); key != "" {
		req.Key = key
	}
	if strings.TrimSpace(req.Key) == "" || strings.TrimSpace(req.Name) == "" {
		return c.HandleError(ctx, nil, "Entity key and name are required", http.StatusBadRequest)
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	rec := datastore.EntityRecord{
		Num:     strings.TrimSpace(req.Num),
		Key:     strings.ToUpper(strings.TrimSpace(req.Key)),
		Name:    strings.TrimSpace(req.Name),
		Acronym: strings.TrimSpace(req.Acronym),
		Kind:    strings.ToUpper(strings.TrimSpace(req.Kind)),
		Active:  active,
	}
	if err := c.DS.SaveEntity(&rec); err != nil {
		return c.HandleError(ctx, err, "Failed to save entity", http.StatusInternalServerError)
	}
	if err := c.Catalog.Rebuild(); err != nil {
		return c.HandleError(ctx, err, "Entity saved but catalog rebuild failed", http.StatusInternalServerError)
	}
	c.invalidateCrossrefCache()

	return ctx.JSON(http.StatusOK, rec)
}

// DeactivateEntity retires a registry row. Records referencing the entity
// are kept; the entity just stops resolving.
func (c *Controller) DeactivateEntity(ctx echo.Context) error {
	key := strings.ToUpper(strings.TrimSpace(ctx.Param("key")))
	if err := c.DS.DeactivateEntity(key); err != nil {
		notFound := errors.New(err).
			Component("api").
			Category(errors.CategoryNotFound).
			Context("entity_key", key).
			Build()
		return c.HandleError(ctx, notFound, "Entity not found", http.StatusNotFound)
	}
	if err := c.Catalog.Rebuild(); err != nil {
		return c.HandleError(ctx, err, "Entity deactivated but catalog rebuild failed", http.StatusInternalServerError)
	}
	c.invalidateCrossrefCache()

	return ctx.JSON(http.StatusOK, map[string]string{"status": "deactivated", "key": key})
}

// internal/api/dispositions.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// initDispositionRoutes registers review endpoints.
func (c *Controller) initDispositionRoutes() {
	c.Group.POST("/dispositions", c.SaveDisposition, c.RequireSession)
	c.Group.GET("/dispositions/:taxid", c.GetDispositions, c.RequireSession)
}

type dispositionRequest struct {
	TaxID       string `json:"taxId"`
	Entity      string `json:"entity"`
	State       string `json:"state"`
	Comment     string `json:"comment"`
	CatalogCode string `json:"catalogCode"`
	FreeText    string `json:"freeText"`
}

// SaveDisposition records one review verdict. The entity field accepts a
// key, acronym or full name; empty means the whole individual.
func (c *Controller) SaveDisposition(ctx echo.Context) error {
	var req dispositionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid disposition request", http.StatusBadRequest)
	}

	rows, d, err := c.tracker.Review(req.TaxID, req.Entity, req.State, req.Comment, req.CatalogCode, req.FreeText)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to save disposition", http.StatusBadRequest)
	}

	session := currentSession(ctx)
	c.apiLogger.Info("disposition saved",
		"tax_id", d.TaxID, "entity_key", d.EntityKey, "state", d.State,
		"reviewer", session.Username)

	return ctx.JSON(http.StatusOK, map[string]any{
		"rowsAffected": rows,
		"disposition":  d,
	})
}

// GetDispositions returns the merged review state for one individual.
func (c *Controller) GetDispositions(ctx echo.Context) error {
	merged, err := c.tracker.ForTaxID(ctx.Param("taxid"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load dispositions", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, merged)
}

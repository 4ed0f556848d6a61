// internal/api/export.go
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/scil-audit/scil-go/internal/errors"
	"github.com/scil-audit/scil-go/internal/export"
	"github.com/scil-audit/scil-go/internal/period"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// initExportRoutes registers workbook and row exports.
func (c *Controller) initExportRoutes() {
	c.Group.GET("/export", c.ExportWorkbook, c.RequireSession)
	c.Group.GET("/export/rows", c.ExportRows, c.RequireSession)
	c.Group.GET("/template", c.DownloadTemplate, c.RequireSession)
}

// buildRows assembles export rows for the caller, honoring the session's
// access filter and the optional ?entity= restriction.
func (c *Controller) buildRows(ctx echo.Context) ([]export.Row, error) {
	refs, err := c.detect()
	if err != nil {
		return nil, err
	}

	rows, err := export.BuildRows(refs, c.DS, c.Catalog, c.Settings.Audit.FullCyclePeriods)
	if err != nil {
		return nil, err
	}

	if label := ctx.QueryParam("entity"); label != "" {
		rows = export.FilterByEntity(rows, label, c.Catalog)
	}

	filter := currentSession(ctx).Filter(c)
	permitted := make([]export.Row, 0, len(rows))
	for _, row := range rows {
		if key, ok := c.Catalog.ResolveKey(row.OriginEntity); ok && filter.IsPermitted(key) {
			permitted = append(permitted, row)
		}
	}
	return permitted, nil
}

// ExportRows returns the denormalized rows as JSON, N/A rows included so
// the review screen can show full context.
func (c *Controller) ExportRows(ctx echo.Context) error {
	rows, err := c.buildRows(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to build export rows", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"rows":  rows,
		"count": len(rows),
	})
}

// ExportWorkbook streams the xlsx report. N/A rows are dropped.
func (c *Controller) ExportWorkbook(ctx echo.Context) error {
	rows, err := c.buildRows(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to build export rows", http.StatusInternalServerError)
	}

	buf, err := export.Workbook(rows)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to build workbook", http.StatusInternalServerError)
	}

	filename := "incompatibilidades_" + time.Now().Format("20060102_150405") + ".xlsx"
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// DownloadTemplate streams the blank ingest workbook with one sheet per
// active entity visible to the caller.
func (c *Controller) DownloadTemplate(ctx echo.Context) error {
	filter := currentSession(ctx).Filter(c)

	var labels []string
	for _, e := range c.Catalog.Entities("") {
		if filter.IsPermitted(e.Key) {
			labels = append(labels, e.DisplayLabel())
		}
	}
	if len(labels) == 0 {
		notFound := errors.Newf("no entities visible to this session").
			Component("api").
			Category(errors.CategoryNotFound).
			Build()
		return c.HandleError(ctx, notFound, "No entities available", http.StatusNotFound)
	}

	buf, err := export.Template(labels, period.AllTokens())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to build template", http.StatusInternalServerError)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="plantilla_nomina.xlsx"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

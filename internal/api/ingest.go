// internal/api/ingest.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scil-audit/scil-go/internal/ingest"
)

// initIngestRoutes registers workbook upload endpoints.
func (c *Controller) initIngestRoutes() {
	c.Group.POST("/ingest", c.IngestWorkbooks, c.RequireSession)
}

type ingestResponse struct {
	Files     int            `json:"files"`
	Summary   ingest.Summary `json:"summary"`
	Succeeded []string       `json:"succeeded,omitempty"`
	Failed    []string       `json:"failed,omitempty"`
}

// IngestWorkbooks accepts multipart xlsx uploads under the "files" field
// and runs each through the parser. One bad file does not abort the rest.
func (c *Controller) IngestWorkbooks(ctx echo.Context) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return c.HandleError(ctx, err, "Invalid multipart request", http.StatusBadRequest)
	}
	files := form.File["files"]
	if len(files) == 0 {
		return c.HandleError(ctx, nil, "No files provided", http.StatusBadRequest)
	}

	resp := ingestResponse{Files: len(files)}
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			resp.Failed = append(resp.Failed, fh.Filename)
			resp.Summary.Alerts = append(resp.Summary.Alerts, fh.Filename+": "+err.Error())
			continue
		}
		summary, err := c.parser.ParseWorkbook(src, fh.Filename)
		_ = src.Close()
		if err != nil {
			resp.Failed = append(resp.Failed, fh.Filename)
			resp.Summary.Alerts = append(resp.Summary.Alerts, fh.Filename+": "+err.Error())
			continue
		}
		resp.Succeeded = append(resp.Succeeded, fh.Filename)
		resp.Summary.Processed += summary.Processed
		resp.Summary.Inserted += summary.Inserted
		resp.Summary.Updated += summary.Updated
		resp.Summary.Rejected += summary.Rejected
		resp.Summary.Alerts = append(resp.Summary.Alerts, summary.Alerts...)
	}

	c.invalidateCrossrefCache()
	return ctx.JSON(http.StatusOK, resp)
}

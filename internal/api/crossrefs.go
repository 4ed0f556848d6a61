// internal/api/crossrefs.go
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/scil-audit/scil-go/internal/crossref"
	"github.com/scil-audit/scil-go/internal/disposition"
	"github.com/scil-audit/scil-go/internal/entity"
	"github.com/scil-audit/scil-go/internal/errors"
)

const crossrefCacheKey = "crossrefs"

// initCrossrefRoutes registers detection views.
func (c *Controller) initCrossrefRoutes() {
	c.Group.GET("/crossrefs", c.GetCrossrefs, c.RequireSession)
	c.Group.GET("/individuals/:taxid", c.GetIndividual, c.RequireSession)
}

// detect runs the full-scan detector, memoized between ingests.
func (c *Controller) detect() ([]crossref.CrossReference, error) {
	if cached, ok := c.crossrefCache.Get(crossrefCacheKey); ok {
		return cached.([]crossref.CrossReference), nil
	}
	records, err := c.DS.AllRecords()
	if err != nil {
		return nil, err
	}
	refs := crossref.Detect(records)
	c.crossrefCache.SetDefault(crossrefCacheKey, refs)
	return refs, nil
}

// entityGroup is the per-entity slice of the grouped crossref view. An
// entity with records but no detected cases still appears, with counts
// only, so reviewers see which uploads are clean.
type entityGroup struct {
	EntityKey string                    `json:"entityKey"`
	Label     string                    `json:"label"`
	Kind      entity.Kind               `json:"kind"`
	Workers   int                       `json:"workers"`
	CaseCount int                       `json:"caseCount"`
	Crossrefs []crossref.CrossReference `json:"crossrefs,omitempty"`
}

// GetCrossrefs returns detected cases grouped by entity, restricted to the
// entities the session's entitlements permit.
func (c *Controller) GetCrossrefs(ctx echo.Context) error {
	session := currentSession(ctx)
	filter := session.Filter(c)

	refs, err := c.detect()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to detect cross references", http.StatusInternalServerError)
	}

	merged, err := c.tracker.All()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load dispositions", http.StatusInternalServerError)
	}
	annotated := make([]crossref.CrossReference, len(refs))
	for i, ref := range refs {
		if m, ok := merged[ref.TaxID]; ok {
			ref.Status = m.Overall
		}
		annotated[i] = ref
	}

	counts, err := c.DS.CountDistinctTaxIDsByEntity()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to count workers", http.StatusInternalServerError)
	}

	byEntity := make(map[string][]crossref.CrossReference)
	for _, ref := range annotated {
		for _, key := range ref.InvolvedEntities {
			byEntity[key] = append(byEntity[key], ref)
		}
	}

	groups := make([]entityGroup, 0)
	for _, e := range c.Catalog.Entities("") {
		if !filter.IsPermitted(e.Key) {
			continue
		}
		cases := byEntity[e.Key]
		groups = append(groups, entityGroup{
			EntityKey: e.Key,
			Label:     e.DisplayLabel(),
			Kind:      e.Kind,
			Workers:   counts[e.Key],
			CaseCount: len(cases),
			Crossrefs: cases,
		})
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"entities":   groups,
		"totalCases": len(annotated),
	})
}

// individualResponse is the per-person detail view.
type individualResponse struct {
	Crossref    *crossref.CrossReference `json:"crossref,omitempty"`
	Records     any                      `json:"records"`
	Disposition *disposition.Merged      `json:"disposition"`
}

// GetIndividual returns everything known about one taxId: all employment
// records, the detected case if any, and the merged review state.
func (c *Controller) GetIndividual(ctx echo.Context) error {
	taxID := strings.ToUpper(strings.TrimSpace(ctx.Param("taxid")))
	if taxID == "" {
		return c.HandleError(ctx, nil, "Missing tax id", http.StatusBadRequest)
	}

	records, err := c.DS.RecordsByTaxID(taxID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load records", http.StatusInternalServerError)
	}
	if len(records) == 0 {
		notFound := errors.Newf("no records for tax id %s", taxID).
			Component("api").
			Category(errors.CategoryNotFound).
			Build()
		return c.HandleError(ctx, notFound, "Individual not found", http.StatusNotFound)
	}

	refs := crossref.Detect(records)
	resp := individualResponse{Records: records}
	if len(refs) > 0 {
		resp.Crossref = &refs[0]
	}

	merged, err := c.tracker.ForTaxID(taxID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load dispositions", http.StatusInternalServerError)
	}
	resp.Disposition = merged
	if resp.Crossref != nil {
		resp.Crossref.Status = merged.Overall
	}

	return ctx.JSON(http.StatusOK, resp)
}

/*
handlers.go - HTTP API handlers for the reconciliation engine

PURPOSE:
  Exposes the current load cycle read-only and accepts new loads. Handlers
  parse the request, delegate to the engine or the cycle store, and
  serialize DTOs. No business arithmetic happens here.

ENDPOINTS:
  Metrics:
    GET    /api/metrics                 Full bundle with cycle id and last_updated
    GET    /api/metrics/financial       Aggregate figures
    GET    /api/employees               Employee metrics (?role=TECH|BCBA)
    GET    /api/employees/{name}        One employee by any spelling
    GET    /api/opportunities           Ranked opportunities (?limit=N)
    GET    /api/unmatched               Names with no counterpart
    GET    /api/quality                 Data quality
    GET    /api/selfcheck               Self-check outcome

  Diagnostics:
    GET    /api/matches?name=...        Matcher result against billing names

  Loads:
    GET    /api/loads                   Load history, newest first
    POST   /api/loads                   Multipart upload (billing, payroll)
    POST   /api/loads/reload            Re-read configured source files

  Scenarios:
    GET    /api/scenarios               List sample datasets
    POST   /api/scenarios/load          Load a sample dataset

LOAD CYCLES:
  Loads are serialized. A load computes a complete bundle and only then
  publishes it; a failed load leaves the previous bundle in place.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Unsupported file, missing columns, no data, bad parameters
  - 404: Nothing loaded yet, unknown employee or scenario
  - 409: Reload requested with no source files configured
  - 500: Internal errors

SEE ALSO:
  - dto.go: Response data structures
  - scenarios.go: Sample datasets
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"github.com/samber/lo"
	"github.com/warp/reconcile-engine/config"
	"github.com/warp/reconcile-engine/generic"
	"github.com/warp/reconcile-engine/ingest"
	"github.com/warp/reconcile-engine/metrics"
	"github.com/warp/reconcile-engine/records"
	"github.com/warp/reconcile-engine/rules"
	"github.com/warp/reconcile-engine/store"
	"go.uber.org/zap"
)

// maxUploadBytes bounds a multipart load.
const maxUploadBytes = 64 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine  *metrics.Engine
	Store   *store.Memory
	Sources config.SourcesConfig

	logger *zap.Logger
	loadMu sync.Mutex
}

// NewHandler creates a handler. A nil logger discards output.
func NewHandler(engine *metrics.Engine, st *store.Memory, sources config.SourcesConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Engine: engine, Store: st, Sources: sources, logger: logger}
}

// Load computes and publishes one cycle.
func (h *Handler) Load(origin string, in records.Input) store.Cycle {
	h.loadMu.Lock()
	defer h.loadMu.Unlock()

	cycle := store.NewCycle(origin, h.Engine.Compute(in))
	h.Store.Publish(cycle)

	h.logger.Info("load cycle published",
		zap.String("cycle_id", cycle.ID),
		zap.String("origin", origin),
		zap.Int("billing_rows", len(in.Billing)),
		zap.Int("payroll_rows", len(in.Payroll)),
		zap.Int("employees", len(cycle.Bundle.Employees)),
		zap.Bool("self_check_valid", cycle.Bundle.SelfCheck.Valid),
	)
	return cycle
}

// Reload reads the configured source files and publishes a cycle.
func (h *Handler) Reload(ctx context.Context) (store.Cycle, error) {
	if !h.Sources.Configured() {
		return store.Cycle{}, generic.ErrNoSources
	}
	if err := ctx.Err(); err != nil {
		return store.Cycle{}, err
	}
	in, err := ingest.LoadFiles(h.Sources.Billing, h.Sources.Payroll)
	if err != nil {
		return store.Cycle{}, eris.Wrap(err, "reload sources")
	}
	return h.Load("reload", in), nil
}

// current writes 404 and reports false when nothing is loaded.
func (h *Handler) current(w http.ResponseWriter) (store.Cycle, bool) {
	c, ok := h.Store.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "No load cycle published yet", nil)
	}
	return c, ok
}

// =============================================================================
// METRICS HANDLERS
// =============================================================================

// GetMetrics returns the full bundle.
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	c, ok := h.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBundleDTO(c))
}

// GetFinancial returns aggregate figures.
func (h *Handler) GetFinancial(w http.ResponseWriter, r *http.Request) {
	c, ok := h.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toFinancialDTO(c.Bundle.Financial))
}

// ListEmployees returns employee metrics, optionally filtered by role.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	c, ok := h.current(w)
	if !ok {
		return
	}

	employees := c.Bundle.Employees
	if raw := r.URL.Query().Get("role"); raw != "" {
		role := rules.Role(strings.ToUpper(raw))
		if !role.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid role (use TECH or BCBA)", nil)
			return
		}
		employees = lo.Filter(employees, func(e metrics.EmployeeMetric, _ int) bool { return e.Role == role })
	}
	writeJSON(w, http.StatusOK, toEmployeeDTOs(employees))
}

// GetEmployee returns one employee by canonical, billing or payroll name.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	c, ok := h.current(w)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	e, found := c.Bundle.Employee(name)
	if !found {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

// ListOpportunities returns ranked opportunities.
func (h *Handler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	c, ok := h.current(w)
	if !ok {
		return
	}
	ops := c.Bundle.Opportunities
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		if n < len(ops) {
			ops = ops[:n]
		}
	}
	writeJSON(w, http.StatusOK, toOpportunityDTOs(ops))
}

// ListUnmatched returns names with no counterpart.
func (h *Handler) ListUnmatched(w http.ResponseWriter, r *http.Request) {
	c, ok := h.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toUnmatchedDTOs(c.Bundle.Unmatched))
}

// GetQuality returns data quality and the matching report.
func (h *Handler) GetQuality(w http.ResponseWriter, r *http.Request) {
	c, ok := h.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data_quality": toQualityDTO(c.Bundle.DataQuality),
		"matching":     toMatchingDTO(c.Bundle.Matching),
	})
}

// GetSelfCheck returns the self-check outcome.
func (h *Handler) GetSelfCheck(w http.ResponseWriter, r *http.Request) {
	c, ok := h.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSelfCheckDTO(c.Bundle.SelfCheck))
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// FindMatches runs the matcher for one name against the billing names of
// the current cycle.
// GET /api/matches?name=Martinez,%20Sofia&threshold=70
func (h *Handler) FindMatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	threshold := h.Engine.Rules().Matching.Threshold
	if raw := q.Get("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t < 0 || t > 100 {
			writeError(w, http.StatusBadRequest, "Invalid threshold (0-100)", err)
			return
		}
		threshold = t
	}

	c, ok := h.current(w)
	if !ok {
		return
	}
	candidates := lo.FilterMap(c.Bundle.Employees, func(e metrics.EmployeeMetric, _ int) (string, bool) {
		return e.BillingName, e.BillingName != ""
	})

	res := h.Engine.Matcher().FindMatches(name, candidates, threshold)
	writeJSON(w, http.StatusOK, toMatchResultDTO(name, threshold, res))
}

// =============================================================================
// LOAD HANDLERS
// =============================================================================

// ListLoads returns the load history.
func (h *Handler) ListLoads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toCycleSummaryDTOs(h.Store.History()))
}

// UploadLoad accepts a multipart upload with "billing" and "payroll" files.
func (h *Handler) UploadLoad(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	billing, bh, err := r.FormFile("billing")
	if err != nil {
		writeError(w, http.StatusBadRequest, "billing file is required", err)
		return
	}
	defer billing.Close()

	payroll, ph, err := r.FormFile("payroll")
	if err != nil {
		writeError(w, http.StatusBadRequest, "payroll file is required", err)
		return
	}
	defer payroll.Close()

	in, err := ingest.Load(
		ingest.Source{Name: bh.Filename, Reader: billing},
		ingest.Source{Name: ph.Filename, Reader: payroll},
	)
	if err != nil {
		writeLoadError(w, h.logger, err)
		return
	}

	c := h.Load("upload", in)
	writeJSON(w, http.StatusCreated, toBundleDTO(c))
}

// ReloadSources re-reads the configured source files.
func (h *Handler) ReloadSources(w http.ResponseWriter, r *http.Request) {
	c, err := h.Reload(r.Context())
	if err != nil {
		writeLoadError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBundleDTO(c))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeLoadError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, generic.ErrNoSources):
		writeError(w, http.StatusConflict, "No source files configured", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Could not load exports", err)
	default:
		logger.Error("load failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Load failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

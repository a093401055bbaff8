package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hondana/buyback-mailer/internal/content"
	"github.com/hondana/buyback-mailer/internal/domain"
	"github.com/hondana/buyback-mailer/internal/engine"
	"github.com/hondana/buyback-mailer/internal/ledger"
	"github.com/hondana/buyback-mailer/internal/pkg/httputil"
	"github.com/hondana/buyback-mailer/internal/pkg/logger"
	"github.com/hondana/buyback-mailer/internal/repository/postgres"
	"github.com/hondana/buyback-mailer/internal/storage"
)

// Handlers holds the services behind the API surface. PlanRepo, Archive,
// Ledger, and Content may be nil when the matching backend is not
// configured; their endpoints then return 503.
type Handlers struct {
	PlannerConfig engine.PlannerConfig
	PlanRepo      *postgres.PlanRepo
	Archive       storage.Archive
	Ledger        *ledger.Ledger
	Content       *content.Service
}

// NewHandlers creates the handler set.
func NewHandlers(cfg engine.PlannerConfig) *Handlers {
	return &Handlers{PlannerConfig: cfg}
}

// planRequest is the body for POST /api/plan and POST /api/classify.
type planRequest struct {
	Warehouse domain.WarehouseState    `json:"warehouse"`
	Roster    []domain.CustomerProfile `json:"roster"`
	Policy    string                   `json:"policy,omitempty"`
	Ruleset   string                   `json:"ruleset,omitempty"`
	Now       time.Time                `json:"now,omitempty"`
	Persist   bool                     `json:"persist,omitempty"`
}

func (req *planRequest) effectiveNow() time.Time {
	if req.Now.IsZero() {
		return time.Now().UTC()
	}
	return req.Now
}

// plannerConfig applies per-request policy/ruleset overrides.
func (h *Handlers) plannerConfig(req *planRequest) engine.PlannerConfig {
	cfg := h.PlannerConfig
	if req.Policy != "" {
		cfg.Policy = engine.Policy(req.Policy)
	}
	if req.Ruleset != "" {
		cfg.Ruleset = engine.Ruleset(req.Ruleset)
	}
	return cfg
}

// RunPlan executes the full pipeline for a warehouse snapshot and roster.
//
//	POST /api/plan
func (h *Handlers) RunPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.Roster) == 0 {
		httputil.BadRequest(w, "roster is empty")
		return
	}

	planner, err := engine.NewPlanner(h.plannerConfig(&req))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	now := req.effectiveNow()

	if h.Ledger != nil {
		if err := h.Ledger.Hydrate(r.Context(), req.Roster); err != nil {
			logger.Warn("ledger hydration failed, using roster state", "error", err)
		}
	}

	plan, err := planner.Run(req.Warehouse, req.Roster, now)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if req.Persist {
		if h.PlanRepo != nil {
			if err := h.PlanRepo.Save(r.Context(), plan); err != nil {
				logger.Error("plan save failed", "plan_id", plan.ID, "error", err)
			}
		}
		if h.Archive != nil {
			if key, err := h.Archive.SavePlan(r.Context(), plan); err != nil {
				logger.Error("plan archive failed", "plan_id", plan.ID, "error", err)
			} else {
				logger.Info("plan archived", "plan_id", plan.ID, "key", key)
			}
		}
	}

	httputil.OK(w, plan)
}

// Classify runs the rule engine only, returning one decision per customer
// with its trace. No budget is applied.
//
//	POST /api/classify
func (h *Handlers) Classify(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.Roster) == 0 {
		httputil.BadRequest(w, "roster is empty")
		return
	}
	if err := req.Warehouse.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	ruleset := engine.RulesetV2
	if req.Ruleset != "" {
		rs, err := engine.ParseRuleset(req.Ruleset)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		ruleset = rs
	}

	now := req.effectiveNow()
	cl := engine.NewClassifier(req.Warehouse, ruleset)
	decisions := make([]domain.EmailDecision, len(req.Roster))
	for i, c := range req.Roster {
		decisions[i] = cl.Classify(c, now)
	}

	httputil.OK(w, map[string]interface{}{
		"ruleset":   ruleset,
		"decisions": decisions,
	})
}

// budgetRequest is the body for POST /api/budget.
type budgetRequest struct {
	Warehouse domain.WarehouseState `json:"warehouse"`
	Config    *engine.BudgetConfig  `json:"config,omitempty"`
}

// CalculateBudget computes the day's send budget for a warehouse snapshot.
//
//	POST /api/budget
func (h *Handlers) CalculateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	cfg := h.PlannerConfig.Budget
	if req.Config != nil {
		cfg = *req.Config
	}
	calc, err := engine.NewBudgetCalculator(cfg)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	budget, err := calc.Calculate(req.Warehouse)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	httputil.OK(w, budget)
}

// targetRequest is the body for POST /api/target.
type targetRequest struct {
	Roster             []domain.CustomerProfile `json:"roster"`
	TargetApplications int                      `json:"target_applications"`
	Now                time.Time                `json:"now,omitempty"`
}

// SelectTarget extracts the smallest high-score roster slice expected to
// produce the requested number of buyback applications.
//
//	POST /api/target
func (h *Handlers) SelectTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.TargetApplications <= 0 {
		httputil.BadRequest(w, "target_applications must be positive")
		return
	}
	if len(req.Roster) == 0 {
		httputil.BadRequest(w, "roster is empty")
		return
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	sel := engine.NewTargetOptimizer(nil).Select(req.Roster, req.TargetApplications, now)
	httputil.OK(w, sel)
}

// ListScenarios returns the canned simulation scenarios.
//
//	GET /api/scenarios
func (h *Handlers) ListScenarios(w http.ResponseWriter, r *http.Request) {
	type scenarioInfo struct {
		Key         string                `json:"key"`
		Name        string                `json:"name"`
		Description string                `json:"description"`
		Warehouse   domain.WarehouseState `json:"warehouse"`
	}
	scenarios := engine.Scenarios(time.Now().UTC())
	out := make([]scenarioInfo, len(scenarios))
	for i, s := range scenarios {
		out[i] = scenarioInfo{Key: s.Key, Name: s.Name, Description: s.Description, Warehouse: s.Warehouse}
	}
	httputil.OK(w, out)
}

// simulateRequest is the body for scenario simulation.
type simulateRequest struct {
	Roster  []domain.CustomerProfile `json:"roster"`
	Policy  string                   `json:"policy,omitempty"`
	Ruleset string                   `json:"ruleset,omitempty"`
	Now     time.Time                `json:"now,omitempty"`
}

func (h *Handlers) simulator(req *simulateRequest) (*engine.Simulator, error) {
	cfg := h.PlannerConfig
	if req.Policy != "" {
		cfg.Policy = engine.Policy(req.Policy)
	}
	if req.Ruleset != "" {
		cfg.Ruleset = engine.Ruleset(req.Ruleset)
	}
	return engine.NewSimulator(cfg)
}

// SimulateScenarios runs the roster through every scenario.
//
//	POST /api/scenarios/simulate
func (h *Handlers) SimulateScenarios(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.Roster) == 0 {
		httputil.BadRequest(w, "roster is empty")
		return
	}

	sim, err := h.simulator(&req)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	results, err := sim.RunAll(req.Roster, now)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, results)
}

// SimulateScenario runs the roster through one scenario by key.
//
//	POST /api/scenarios/{key}/simulate
func (h *Handlers) SimulateScenario(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.Roster) == 0 {
		httputil.BadRequest(w, "roster is empty")
		return
	}

	sim, err := h.simulator(&req)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	result, err := sim.Run(chi.URLParam(r, "key"), req.Roster, now)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.OK(w, result)
}

// ListPlans returns persisted plan summaries, newest first.
//
//	GET /api/plans?limit=50&offset=0
func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	if h.PlanRepo == nil {
		httputil.Unavailable(w, "plan persistence not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	plans, err := h.PlanRepo.List(r.Context(), limit, offset)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, plans)
}

// GetPlan returns one persisted plan in full.
//
//	GET /api/plans/{id}
func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	if h.PlanRepo == nil {
		httputil.Unavailable(w, "plan persistence not configured")
		return
	}
	plan, err := h.PlanRepo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			httputil.NotFound(w, "plan not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, plan)
}

// DeletePlan removes a persisted plan.
//
//	DELETE /api/plans/{id}
func (h *Handlers) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if h.PlanRepo == nil {
		httputil.Unavailable(w, "plan persistence not configured")
		return
	}
	if err := h.PlanRepo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			httputil.NotFound(w, "plan not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

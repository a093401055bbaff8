package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, health *HealthChecker) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (no auth required)
	if health != nil {
		r.Get("/health", health.HandleHealth)
		r.Get("/health/live", health.HandleLiveness)
		r.Get("/health/ready", health.HandleReadiness)
	}

	r.Route("/api", func(r chi.Router) {
		// Planning pipeline
		r.Post("/plan", h.RunPlan)
		r.Post("/classify", h.Classify)
		r.Post("/budget", h.CalculateBudget)
		r.Post("/target", h.SelectTarget)

		// What-if simulation
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/simulate", h.SimulateScenarios)
			r.Post("/{key}/simulate", h.SimulateScenario)
		})

		// Archived plans
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Get("/{id}", h.GetPlan)
			r.Delete("/{id}", h.DeletePlan)
		})

		// Email content generation
		r.Post("/content/generate", h.GenerateContent)

		// Relationship ledger
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/{customerID}/history", h.LedgerHistory)
			r.Get("/{customerID}/balance", h.LedgerBalance)
			r.Post("/sends", h.RecordSend)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		http.NotFound(w, req)
	})

	return r
}

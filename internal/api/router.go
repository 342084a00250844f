// Package api exposes a planning session over HTTP for an external editing
// surface.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/PontusDahlberg/Semesterappen/internal/budget"
	"github.com/PontusDahlberg/Semesterappen/internal/planner"
	"github.com/PontusDahlberg/Semesterappen/internal/scenario"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Service is the planning session the handlers drive
type Service interface {
	Overview() planner.Overview
	Select(name string) (planner.Overview, error)
	Clone(name string) (planner.Overview, error)
	Month(year int, month time.Month) (planner.MonthView, error)
	ApplyMonthEdits(year int, month time.Month, edits []scenario.Edit) (planner.MonthView, error)
	SetBudgetDays(days float64) (budget.Summary, error)
	Summary() budget.Summary
	Report(topN, holidaysN int) budget.Report
	Save(ctx context.Context) error
}

// NewRouter creates the HTTP handler with health checks and the /api routes.
// A non-empty token enables Bearer authentication on /api.
func NewRouter(svc Service, token string, logger *zap.Logger) http.Handler {
	h := NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(token != "", token))

		r.Get("/scenarios", h.ListScenarios)
		r.Post("/scenarios", h.CloneScenario)
		r.Put("/scenarios/current", h.SelectScenario)

		r.Get("/months/{year}/{month}", h.GetMonth)
		r.Put("/months/{year}/{month}", h.PutMonth)

		r.Get("/summary", h.GetSummary)
		r.Get("/report", h.GetReport)
		r.Put("/settings/budget", h.PutBudget)
		r.Post("/save", h.Save)
	})

	return r
}

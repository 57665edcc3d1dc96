package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/xxjiinn/medical-inference-platform/internal/api/middleware"
	"github.com/xxjiinn/medical-inference-platform/internal/api/response"
)

// Dependencies holds all handler dependencies for the router.
type Dependencies struct {
	SubmitJobHandler  http.HandlerFunc
	GetJobHandler     http.HandlerFunc
	GetResultHandler  http.HandlerFunc
	MetricsHandler    http.HandlerFunc
	DLQHandler        http.HandlerFunc
	HealthHandler     http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
//
// There is no mw.Auth or mw.RateLimit here: the inference API has no
// tenant or quota concept to enforce against, so both were deleted
// rather than kept unmounted (see DESIGN.md).
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", orNotImplemented(deps.SubmitJobHandler))
		r.Get("/{id}", orNotImplemented(deps.GetJobHandler))
		r.Get("/{id}/result", orNotImplemented(deps.GetResultHandler))
	})

	r.Route("/v1/ops", func(r chi.Router) {
		r.Get("/metrics", orNotImplemented(deps.MetricsHandler))
		r.Get("/dlq", orNotImplemented(deps.DLQHandler))
		r.Get("/health", orNotImplemented(deps.HealthHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}

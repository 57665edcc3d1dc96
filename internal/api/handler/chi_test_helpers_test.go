package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// withChiURLParam injects a chi URL parameter into a request's context so
// handlers that call chi.URLParam can be exercised without a live router.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

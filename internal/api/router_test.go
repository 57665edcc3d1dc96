package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xxjiinn/medical-inference-platform/internal/api"
)

func TestRouter_UnwiredHandlerReturns501(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 for unwired handler, got %d", rec.Code)
	}
}

func TestRouter_MountsJobRoutes(t *testing.T) {
	called := map[string]bool{}
	deps := api.Dependencies{
		SubmitJobHandler: func(w http.ResponseWriter, r *http.Request) { called["submit"] = true },
		GetJobHandler:    func(w http.ResponseWriter, r *http.Request) { called["get"] = true },
		GetResultHandler: func(w http.ResponseWriter, r *http.Request) { called["result"] = true },
	}
	router := api.NewRouter(deps)

	cases := []struct {
		method, path, key string
	}{
		{http.MethodPost, "/v1/jobs/", "submit"},
		{http.MethodGet, "/v1/jobs/1", "get"},
		{http.MethodGet, "/v1/jobs/1/result", "result"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))
		if !called[c.key] {
			t.Errorf("expected %s %s to reach the %s handler", c.method, c.path, c.key)
		}
	}
}

func TestRouter_MountsOpsRoutes(t *testing.T) {
	called := map[string]bool{}
	deps := api.Dependencies{
		MetricsHandler: func(w http.ResponseWriter, r *http.Request) { called["metrics"] = true },
		DLQHandler:     func(w http.ResponseWriter, r *http.Request) { called["dlq"] = true },
		HealthHandler:  func(w http.ResponseWriter, r *http.Request) { called["health"] = true },
	}
	router := api.NewRouter(deps)

	for path, key := range map[string]string{
		"/v1/ops/metrics": "metrics",
		"/v1/ops/dlq":     "dlq",
		"/v1/ops/health":  "health",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if !called[key] {
			t.Errorf("expected GET %s to reach the %s handler", path, key)
		}
	}
}

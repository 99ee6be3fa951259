package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpmiddleware "github.com/wolfman30/lead-intake/internal/http/middleware"
	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/internal/observability/metrics"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

func newTestRouter(t *testing.T, repo leads.Repository, origins ...string) http.Handler {
	t.Helper()

	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	intake := leads.NewIntake(leads.IntakeConfig{
		Provider: leads.StaticProvider(repo),
		Policy:   leads.StrictPolicy,
		Metrics:  metrics.NewIntakeMetrics(reg),
		Logger:   logger,
	})

	return New(&Config{
		Logger:         logger,
		LeadsHandler:   leads.NewHandler(intake, logger),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORS:           httpmiddleware.NewCORSPolicy(origins),
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, leads.NewInMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterLeadEndpoints(t *testing.T) {
	for _, path := range LeadPaths {
		t.Run(path, func(t *testing.T) {
			repo := leads.NewInMemoryRepository()
			router := newTestRouter(t, repo, "https://example.com")

			body, _ := json.Marshal(map[string]any{
				"name":     "Router Test",
				"phone":    "+12223334444",
				"whatsapp": "+12223334444",
				"consent":  "on",
				"hp":       "",
				"ts":       time.Now().Add(-10 * time.Second).UnixMilli(),
			})
			req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Origin", "https://example.com")
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
				t.Fatalf("expected CORS origin, got %q", got)
			}
			if repo.Count() != 1 {
				t.Fatalf("expected one stored lead, got %d", repo.Count())
			}
		})
	}
}

func TestRouterPreflightCarriesCORS(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	router := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodOptions, LeadPaths[0], nil)
	req.Header.Set("Origin", "https://anywhere.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected %d, got %d", http.StatusNoContent, rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rr.Body.String())
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
		t.Fatalf("unexpected allow methods %q", got)
	}
	if repo.Count() != 0 {
		t.Fatalf("preflight must not store anything")
	}
}

func TestRouterGetIsRejectedWithCORS(t *testing.T) {
	router := newTestRouter(t, leads.NewInMemoryRepository())

	req := httptest.NewRequest(http.MethodGet, LeadPaths[1], nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected %d, got %d", http.StatusMethodNotAllowed, rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS headers on 405")
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "Method Not Allowed. Use POST." {
		t.Fatalf("unexpected error body %v", resp)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, leads.NewInMemoryRepository())

	// Produce one observation so the counter family is exported.
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodOptions, LeadPaths[0], nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("leads_intake_requests_total")) {
		t.Fatalf("expected intake counter to be exported")
	}
}

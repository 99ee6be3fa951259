package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/lead-intake/internal/app/bootstrap"
	appconfig "github.com/wolfman30/lead-intake/internal/config"
	"github.com/wolfman30/lead-intake/internal/leads"
	"github.com/wolfman30/lead-intake/pkg/logging"
)

func TestSetupMetricsExposesIntakeMetrics(t *testing.T) {
	handler, m := setupMetrics()
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveRequest("inserted", http.StatusOK, 10*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "leads_intake_requests_total") {
		t.Fatalf("expected intake counter to be exported")
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatalf("expected runtime collectors to be registered")
	}
}

func TestBuildIntakeMisconfiguredSupabase(t *testing.T) {
	cfg := &appconfig.Config{LeadsStore: "supabase", NotifyProvider: "none"}
	logger := logging.New("error")
	provider := bootstrap.NewLeadsProvider(cfg, nil, logger)
	_, m := setupMetrics()

	intake := buildIntake(context.Background(), cfg, provider, m, logger)
	res := intake.Process(context.Background(), leads.Request{
		Method: http.MethodPost,
		Body:   strings.NewReader(`{"ts": 1}`),
	})

	if res.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Status)
	}
	if !strings.Contains(string(res.Body()), "SUPABASE_URL") {
		t.Fatalf("expected missing setting to be named, got %s", res.Body())
	}
}

func TestBuildIntakeMemoryStoreAppliesPolicy(t *testing.T) {
	cfg := &appconfig.Config{
		LeadsStore:   "memory",
		MinElapsed:   time.Hour,
		MaxBodyBytes: 64,
	}
	logger := logging.New("error")
	provider := bootstrap.NewLeadsProvider(cfg, nil, logger)
	_, m := setupMetrics()
	intake := buildIntake(context.Background(), cfg, provider, m, logger)

	res := intake.Process(context.Background(), leads.Request{
		Method: http.MethodPost,
		Body:   strings.NewReader(`{"name":"Jane","phone":"123456","telegram":"@j","consent":true,"ts":1}`),
	})
	if res.Status != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected configured body cap to apply, got %d", res.Status)
	}

	ts := time.Now().Add(-time.Minute).UnixMilli()
	body := `{"phone":"123456","consent":"yes","ts":` + strconv.FormatInt(ts, 10) + `}`
	res = intake.Process(context.Background(), leads.Request{Method: http.MethodPost, Body: strings.NewReader(body)})
	if res.Status != http.StatusTooManyRequests {
		t.Fatalf("expected configured dwell time to apply, got %d", res.Status)
	}
}

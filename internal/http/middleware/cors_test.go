package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSAllowsListedOrigin(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	mw := CORS(NewCORSPolicy([]string{"https://example.com", "https://www.example.com"}))
	req := httptest.NewRequest(http.MethodPost, "/lead", nil)
	req.Header.Set("Origin", "https://www.example.com")
	rec := httptest.NewRecorder()

	mw(handler).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://www.example.com" {
		t.Fatalf("expected allow origin header, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
		t.Fatalf("unexpected allow methods %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Fatalf("unexpected allow headers %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
}

func TestCORSUnknownOriginGetsConfiguredOrigin(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	mw := CORS(NewCORSPolicy([]string{"https://example.com"}))
	req := httptest.NewRequest(http.MethodPost, "/lead", nil)
	req.Header.Set("Origin", "https://unknown.example")
	rec := httptest.NewRecorder()

	mw(handler).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("expected configured origin, got %q", got)
	}
	if rec.Header().Get("Vary") != "" {
		t.Fatalf("single origin should not vary")
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, origins := range [][]string{{"*"}, nil, {" ", ""}} {
		mw := CORS(NewCORSPolicy(origins))
		req := httptest.NewRequest(http.MethodPost, "/lead", nil)
		rec := httptest.NewRecorder()

		mw(handler).ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("origins %v: expected wildcard, got %q", origins, got)
		}
	}
}

func TestCORSHeadersWithoutOriginHeader(t *testing.T) {
	h := NewCORSPolicy([]string{"https://example.com"}).Headers("")
	if h["Access-Control-Allow-Origin"] != "https://example.com" {
		t.Fatalf("expected configured origin, got %q", h["Access-Control-Allow-Origin"])
	}
}

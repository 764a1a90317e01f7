package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsHandler(origins ...string) http.Handler {
	return CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORSEchoesAllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.tabibah.example")
	rec := httptest.NewRecorder()

	corsHandler("https://app.tabibah.example").ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.tabibah.example" {
		t.Errorf("allow-origin = %q", got)
	}
	if rec.Header().Get("Vary") != "Origin" {
		t.Error("Vary: Origin missing")
	}
}

func TestCORSMatchesOriginCaseInsensitively(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://App.Tabibah.Example")
	rec := httptest.NewRecorder()

	corsHandler("https://app.tabibah.example").ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("differently-cased origin not matched")
	}
}

func TestCORSIgnoresUnlistedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	corsHandler("https://app.tabibah.example").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, request should still reach the handler", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unlisted origin received CORS headers")
	}
}

func TestCORSWildcardEchoesAnyOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()

	corsHandler("*").ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example" {
		t.Errorf("allow-origin = %q, want the origin echoed back", got)
	}
}

func TestCORSAnswersPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/website/booking", nil)
	req.Header.Set("Origin", "https://app.tabibah.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	corsHandler("https://app.tabibah.example").ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("allow-methods missing on preflight")
	}
}

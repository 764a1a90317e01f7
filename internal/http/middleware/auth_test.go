package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tabibah/clinic-platform/internal/tenancy"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestBearerAuthAcceptsValidToken(t *testing.T) {
	var gotClaims AuthClaims
	var gotClinic string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("claims missing from context")
		}
		gotClaims = claims
		gotClinic, _ = tenancy.ClinicIDFromContext(r.Context())
	})

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":       "user-1",
		"clinic_id": "clinic-1",
		"role":      "patient",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	BearerAuth(testSecret)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotClaims.Subject != "user-1" || gotClaims.Role != "patient" {
		t.Errorf("claims = %+v", gotClaims)
	}
	if gotClinic != "clinic-1" {
		t.Errorf("clinic in context = %q, want clinic-1", gotClinic)
	}
}

func TestBearerAuthRejectsWrongSignature(t *testing.T) {
	token := signToken(t, "other-secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	BearerAuth(testSecret)(panicOnCall(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBearerAuthRejectsExpiredToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	BearerAuth(testSecret)(panicOnCall(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBearerAuthRejectsMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	BearerAuth(testSecret)(panicOnCall(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBearerAuthRejectsWhenSecretUnset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()

	BearerAuth("")(panicOnCall(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestContextWithClaimsRoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := ContextWithClaims(req.Context(), AuthClaims{
		ClinicID:         "clinic-9",
		Role:             "doctor",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-9"},
	})

	userID, ok := UserIDFromContext(ctx)
	if !ok || userID != "user-9" {
		t.Errorf("user id = %q, %v", userID, ok)
	}
	clinic, ok := tenancy.ClinicIDFromContext(ctx)
	if !ok || clinic != "clinic-9" {
		t.Errorf("clinic id = %q, %v", clinic, ok)
	}
}

func panicOnCall(t *testing.T) http.Handler {
	return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached past auth middleware")
	})
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tabibah/clinic-platform/internal/tenancy"
)

type contextKey string

const authClaimsKey contextKey = "authClaims"

// AuthClaims are the token claims the API cares about.
type AuthClaims struct {
	ClinicID string `json:"clinic_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// BearerAuth enforces an HMAC-signed JWT and stores its claims plus the
// clinic scope in the request context.
func BearerAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := AuthClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), authClaimsKey, claims)
			if claims.ClinicID != "" {
				ctx = tenancy.WithClinicID(ctx, claims.ClinicID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithClaims stores claims directly, bypassing token verification.
func ContextWithClaims(ctx context.Context, claims AuthClaims) context.Context {
	ctx = context.WithValue(ctx, authClaimsKey, claims)
	if claims.ClinicID != "" {
		ctx = tenancy.WithClinicID(ctx, claims.ClinicID)
	}
	return ctx
}

// ClaimsFromContext returns auth claims if present.
func ClaimsFromContext(ctx context.Context) (AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsKey).(AuthClaims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user id (token subject).
func UserIDFromContext(ctx context.Context) (string, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

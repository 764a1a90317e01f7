package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowedHeaders = "Authorization, Content-Type, Accept-Language, X-Clinic-Id"
	corsAllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsMaxAge         = "600"
)

// originAllowlist matches request origins case-insensitively. A single "*"
// entry allows every origin (echoed back, never a literal wildcard, so the
// header stays compatible with credentialed fetches).
type originAllowlist struct {
	any     bool
	origins map[string]struct{}
}

func newOriginAllowlist(allowed []string) originAllowlist {
	list := originAllowlist{origins: make(map[string]struct{}, len(allowed))}
	for _, origin := range allowed {
		origin = strings.ToLower(strings.TrimSpace(origin))
		switch origin {
		case "":
		case "*":
			list.any = true
		default:
			list.origins[origin] = struct{}{}
		}
	}
	return list
}

func (l originAllowlist) match(origin string) bool {
	if origin == "" {
		return false
	}
	if l.any {
		return true
	}
	_, ok := l.origins[strings.ToLower(origin)]
	return ok
}

// CORS answers preflight requests and decorates allowed cross-origin
// responses. Requests from unlisted origins pass through without CORS
// headers; the browser enforces the rejection.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowlist := newOriginAllowlist(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if allowlist.match(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Max-Age", corsMaxAge)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ABOUTME: HTTP middleware for JWT authentication on API endpoints
// ABOUTME: Extracts JWT from Authorization header and adds the subject to context

package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}` + "\n"))
}

// HTTPAuthMiddleware creates an HTTP middleware that rejects requests
// without a valid bearer token and adds AuthContext to the request context.
func HTTPAuthMiddleware(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				writeError(w, errMsg, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				if logger != nil {
					logger.Warn("auth failure", "reason", "jwt_auth_failed", "remote_addr", r.RemoteAddr, "error", err)
				}
				writeError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			authCtx := &AuthContext{Subject: claims.Subject, Roles: claims.Roles}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

// RequireOperatorHTTP creates an HTTP middleware that lets any authenticated
// subject read (GET, HEAD) and requires the operator role for everything
// else. Must be used after HTTPAuthMiddleware.
func RequireOperatorHTTP() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := FromContext(r.Context())
			if authCtx == nil {
				writeError(w, "not authenticated", http.StatusUnauthorized)
				return
			}

			if r.Method != http.MethodGet && r.Method != http.MethodHead && !authCtx.IsOperator() {
				writeError(w, "operator role required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

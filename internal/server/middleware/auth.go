package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/arkmint/arkmint/internal/model"
	"github.com/arkmint/arkmint/internal/service"
)

type contextKeyAuth string

// AuthNaanKey is the context key for the authenticated naming authority.
const AuthNaanKey contextKeyAuth = "auth_naan"

// Authenticate returns an HTTP middleware that resolves the request's
// Authorization bearer token to a naming authority via the auth service
// (legacy raw tokens and hashed API keys both work). On success the
// *model.Naan is attached to the request context; on failure a 401 JSON
// error is returned that never says which part of the credential was wrong.
func Authenticate(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized,
					"Authentication required. Provide an Authorization: Bearer token.")
				return
			}

			naan, err := authSvc.Authenticate(r.Context(), token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), AuthNaanKey, naan)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetNaan extracts the authenticated naan from the context. Returns nil for
// unauthenticated requests.
func GetNaan(ctx context.Context) *model.Naan {
	if n, ok := ctx.Value(AuthNaanKey).(*model.Naan); ok {
		return n
	}
	return nil
}

// bearerToken pulls the credential out of the Authorization header. The
// deployed clients send "Bearer <token>", but a bare token is accepted too.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Manually construct JSON to avoid an import cycle with the handler
	// package's envelope helpers.
	w.Write([]byte(`{"error":{"code":` + strconv.Itoa(status) + `,"message":"` + message + `"}}`))
}

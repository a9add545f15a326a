package accounts

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/johnkiller1245/investment-trading-platform/internal/domain"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "session"

type contextKey struct{}

// AccountFromContext returns the authenticated account stored by
// RequireAuth, if any.
func AccountFromContext(ctx context.Context) (*domain.Account, bool) {
	account, ok := ctx.Value(contextKey{}).(*domain.Account)
	return account, ok
}

// RequireAuth resolves the session cookie to an account and injects it into
// the request context. Requests without a valid session get 401.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			writeUnauthorized(w)
			return
		}

		account, err := s.Authenticate(cookie.Value)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}

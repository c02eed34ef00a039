package identity

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Middleware rejects requests without a valid bearer token and stores the
// token subject as the caller principal in the request context.
func Middleware(tokens *Tokens, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				log.Debug("rejecting request", "path", r.URL.Path, "error", err)
				unauthorized(w, err.Error())
				return
			}

			caller, err := tokens.Verify(raw)
			if err != nil {
				log.Debug("rejecting token", "path", r.URL.Path, "error", err)
				msg := ErrInvalidToken.Error()
				if errors.Is(err, ErrTokenExpired) {
					msg = ErrTokenExpired.Error()
				}
				unauthorized(w, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

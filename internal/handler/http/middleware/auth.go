package middleware

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired admits requests whose verified token is an access token.
// It runs after jwtauth.Verifier, which leaves the verification result in
// the request context.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, raw, err := jwtauth.FromContext(r.Context())
		switch {
		case errors.Is(err, jwtauth.ErrExpired):
			response.HandleError(w, auth.ErrTokenExpired)
			return
		case err != nil, token == nil:
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		if tokenType, ok := raw["type"].(string); !ok || tokenType != "access" {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r)
	})
}

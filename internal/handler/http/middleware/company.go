package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type claimsKey struct{}

// RequireCompany rejects tokens without a company and stores the parsed claims
// for the handlers.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, raw, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		claims, err := auth.ClaimsFromMap(raw)
		if err != nil {
			response.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// ClaimsFromContext returns the claims stored by RequireCompany.
func ClaimsFromContext(ctx context.Context) (auth.Claims, error) {
	claims, ok := ctx.Value(claimsKey{}).(auth.Claims)
	if !ok {
		return auth.Claims{}, auth.ErrCompanyIDRequired
	}
	return claims, nil
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

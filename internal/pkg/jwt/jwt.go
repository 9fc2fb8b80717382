package jwt

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service verifies access tokens issued by the HR core. GenerateAccessToken
// mints tokens with the same claim layout for tooling and tests.
type Service interface {
	GenerateAccessToken(claims auth.Claims) (token string, expiresAt int64, err error)
	ValidateAccessToken(ctx context.Context, tokenString string) (auth.Claims, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(claims auth.Claims) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":     claims.UserID,
		"employee_id": j.returnValueOrNil(claims.EmployeeID),
		"company_id":  claims.CompanyID,
		"role":        string(claims.Role),
		"is_admin":    claims.IsAdmin,
		"type":        "access",
		"exp":         expiresAt,
	})
	return tokenString, expiresAt, err
}

// ValidateAccessToken decodes and verifies tokenString and returns its claims.
func (j *JWTService) ValidateAccessToken(ctx context.Context, tokenString string) (auth.Claims, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	raw, err := token.AsMap(ctx)
	if err != nil {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	if tokenType, ok := raw["type"].(string); !ok || tokenType != "access" {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	return auth.ClaimsFromMap(raw)
}

func (j *JWTService) returnValueOrNil(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

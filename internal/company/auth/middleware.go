// Package auth guards the mutating company routes with HS256 bearer tokens.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ClaimsKey is the echo context key holding the claims of an authenticated
// request.
const ClaimsKey = "claims"

// Middleware rejects mutating requests (POST, PATCH, DELETE) that do not
// carry a valid bearer token signed with jwtSecret. Reads stay public. An
// empty secret disables the check.
func Middleware(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if jwtSecret == "" || !isProtectedRequest(c.Request()) {
				return next(c)
			}

			tokenString, err := extractTokenFromHeader(c.Request())
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims, err := validateToken(tokenString, jwtSecret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// Subject returns the subject of the token that authenticated c.
func Subject(c echo.Context) string {
	claims, ok := c.Get(ClaimsKey).(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", fmt.Errorf("authorization header required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("invalid authorization format: missing Bearer prefix")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenString == "" {
		return "", fmt.Errorf("invalid authorization format: empty token")
	}
	return tokenString, nil
}

func isProtectedRequest(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

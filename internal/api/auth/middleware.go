// Package auth extracts the already-authenticated principal from incoming
// requests. Identity issuance lives outside this service; the bearer token is
// minted by the external identity provider and carries a stable employee
// identifier claim.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/reviewspace/internal/identity"
	"github.com/reviewspace/internal/workflow"
)

// PrincipalClaims is the claim set the identity provider signs.
type PrincipalClaims struct {
	EmployeeID  string `json:"employee_id"`
	DisplayName string `json:"display_name,omitempty"`
	jwt.RegisteredClaims
}

// RequireAuth verifies the bearer token and resolves the internal user
// through the identity resolver, syncing it on first sight.
func RequireAuth(secret string, resolver *identity.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := parseToken(tokenParts[1], secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			user, err := resolver.Sync(c.Request().Context(), claims.EmployeeID, claims.DisplayName)
			if err != nil {
				if errors.Is(err, workflow.ErrUserSyncFailed) || workflow.IsValidation(err) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unable to resolve user")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "user resolution failed")
			}

			c.Set(string(UserContextKey), user)
			return next(c)
		}
	}
}

// RequireEngineToken authorizes engine callback requests with the shared
// bearer token configured for the engine. No user principal is involved;
// reports are keyed by history id.
func RequireEngineToken(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			presented, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid engine credentials")
			}
			return next(c)
		}
	}
}

func parseToken(tokenString, secret string) (*PrincipalClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PrincipalClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*PrincipalClaims)
	if !ok || claims.EmployeeID == "" {
		return nil, fmt.Errorf("missing employee_id claim")
	}
	return claims, nil
}

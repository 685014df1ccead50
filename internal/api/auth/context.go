package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/reviewspace/pkg/models"
)

// ContextKey represents keys for context values
type ContextKey string

const (
	// UserContextKey is where the middleware stores the resolved user.
	UserContextKey ContextKey = "user"
)

// GetUser returns the resolved user for the request, or nil when the request
// did not pass through the auth middleware.
func GetUser(c echo.Context) *models.User {
	user, ok := c.Get(string(UserContextKey)).(*models.User)
	if !ok {
		return nil
	}
	return user
}

package middleware

// identity.go defines helpers shared across middleware and handlers. UserID
// pulls the authenticated subject that JWTAuth stored in the Echo context;
// an empty string means the request was not authenticated.

import (
	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's identifier from the request
// context, or "" when there is none.
func UserID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok {
		return v
	}
	return ""
}

// Role returns the role claim stored by JWTAuth, or "" when absent.
func Role(c echo.Context) string {
	if v, ok := c.Get("role").(string); ok {
		return v
	}
	return ""
}

package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// HasPermission reports whether the user holds the permission. Admins hold
// every permission implicitly; auth only materializes the full list into the
// user when the token carries no permissions claim at all.
func HasPermission(user *AppUser, permission string) bool {
	if user == nil {
		return false
	}
	if IsAdmin(user) {
		return true
	}
	return slices.Contains(user.Permissions, permission)
}

func HasAnyPermission(user *AppUser, permissions ...string) bool {
	for _, permission := range permissions {
		if HasPermission(user, permission) {
			return true
		}
	}
	return false
}

func IsAdmin(user *AppUser) bool {
	if user == nil {
		return false
	}
	return user.Role == "admin"
}

// RequirePermission guards a route behind a single permission.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			if !HasPermission(user, permission) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: missing permission " + permission})
			}

			return next(c)
		}
	}
}

// RequireAnyPermission guards a route that several roles reach through
// different grants, e.g. the registry listing is open to anyone who can
// search.
func RequireAnyPermission(permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			if !HasAnyPermission(user, permissions...) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: missing required permission"})
			}

			return next(c)
		}
	}
}

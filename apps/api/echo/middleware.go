package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core/attendance"
	"github.com/trezcool/schoolhub/core/auth"
)

var (
	officeRoles = []string{auth.RoleAdmin, auth.RoleStaff}

	// teachers take the register themselves
	uploadRoles = map[string][]string{
		attendance.Collection: {auth.RoleAdmin, auth.RoleStaff, auth.RoleTeacher},
	}
)

func rolesFor(kind string) []string {
	if roles, ok := uploadRoles[kind]; ok {
		return roles
	}
	return officeRoles
}

func rolesMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.HasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

package middleware

import (
	"context"
	"net/http"

	"fulfillment/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// 今のロールで絞る（usecase.Guard）
type RoleChecker interface {
	RequireAnyRole(ctx context.Context, user model.User, required ...model.RoleName) (model.User, error)
}

// contextのユーザーが指定ロールのどれかを持っているか確認します。
// ロールはトークンではなくDBの今の値を見る。
func RoleGuard(roles RoleChecker, required ...model.RoleName) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("authentication required", ""))
			}

			if _, err := roles.RequireAnyRole(c.Request().Context(), user, required...); err != nil {
				return writeAuthError(c, err)
			}
			return next(c)
		}
	}
}

// ADMINだけ許可
func AdminRoleGuard(roles RoleChecker) echo.MiddlewareFunc {
	return RoleGuard(roles, model.RoleAdmin)
}

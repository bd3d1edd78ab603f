package server

import (
	"net/http"

	"fulfillment/internal/handler"
	"fulfillment/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 全ハンドラ（cmd/apiで組み立てる）
type Handlers struct {
	Auth         *handler.AuthHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	Role         *handler.RoleHandler
	AdminUser    *handler.AdminUserHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
}

func RegisterRoutes(e *echo.Echo, guard *usecase.Guard, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Auth.RegisterRoutes(e, guard)
	h.Cart.RegisterRoutes(e, guard)
	h.Order.RegisterRoutes(e, guard)
	h.AdminOrder.RegisterRoutes(e, guard)
	h.Role.RegisterRoutes(e, guard)
	h.AdminUser.RegisterRoutes(e, guard)
	h.AdminProduct.RegisterRoutes(e, guard)
	h.Product.RegisterRoutes(e)
}

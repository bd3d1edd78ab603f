package handler

import (
	"net/http"

	"fulfillment/internal/middleware"
	"fulfillment/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 配送担当の割り当て（ADMINのみ）
type AdminOrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewAdminOrderHandler(uc *usecase.OrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type AssignShipperRequest struct {
	ShipperID int64 `json:"shipper_id"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, guard *usecase.Guard) {
	e.PUT("/orders/:id/assign-shipper", h.assignShipper,
		middleware.AuthJWT(guard),
		middleware.AdminRoleGuard(guard),
	)
}

func (h *AdminOrderHandler) assignShipper(c echo.Context) error {
	// ★操作した管理者（監査ログ用）
	admin, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	orderID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req AssignShipperRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.ShipperID <= 0 {
		return badRequest(c, "invalid shipper_id")
	}

	out, err := h.uc.AssignShipper(c.Request().Context(), admin, orderID, req.ShipperID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

package handler

import (
	"net/http"

	"fulfillment/internal/domain/model"
	"fulfillment/internal/middleware"
	"fulfillment/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, guard *usecase.Guard) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(guard))

	g.GET("/my", h.listScope(usecase.OrderScopeMine))
	g.GET("/assigned", h.listScope(usecase.OrderScopeAssigned), middleware.RoleGuard(guard, model.RoleShipper))
	g.GET("", h.listScope(usecase.OrderScopeAll), middleware.RoleGuard(guard, model.RoleAdmin, model.RoleShipper))
	g.GET("/:id", h.detail)
	g.PUT("/:id/cancel", h.cancel)
	// 誰が何に変えられるかはusecaseで判定する
	g.PUT("/:id/status", h.updateStatus)
}

func (h *OrderHandler) listScope(scope usecase.OrderScope) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := currentUser(c)
		if !ok {
			return unauthorized(c)
		}

		page, limit, ok := pageQuery(c)
		if !ok {
			return badRequest(c, "invalid page or limit")
		}

		out, err := h.uc.ListOrders(c.Request().Context(), user, usecase.ListOrdersInput{
			Scope:  scope,
			Status: c.QueryParam("status"),
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}
}

func (h *OrderHandler) detail(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.GetOrder(c.Request().Context(), user, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.CancelOrder(c.Request().Context(), user, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.TransitionOrder(c.Request().Context(), user, id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

package handler

import (
	"net/http"

	"fulfillment/internal/middleware"
	"fulfillment/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ロール申請（本人側）
type RoleHandler struct {
	uc *usecase.RoleUsecase
}

func NewRoleHandler(uc *usecase.RoleUsecase) *RoleHandler {
	return &RoleHandler{uc: uc}
}

type ApplyRoleRequest struct {
	RoleName string `json:"role_name"`
	Reason   string `json:"reason"`
}

func (h *RoleHandler) RegisterRoutes(e *echo.Echo, guard *usecase.Guard) {
	g := e.Group("/users", middleware.AuthJWT(guard))

	g.POST("/apply-role", h.apply)
	g.GET("/my-applications", h.listMine)
}

func (h *RoleHandler) apply(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req ApplyRoleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Apply(c.Request().Context(), user, usecase.ApplyRoleInput{
		RoleName: req.RoleName,
		Reason:   req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *RoleHandler) listMine(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ListMine(c.Request().Context(), user)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

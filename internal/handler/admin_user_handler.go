package handler

import (
	"net/http"
	"strconv"

	"fulfillment/internal/middleware"
	"fulfillment/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	users *usecase.AdminUserUsecase
	roles *usecase.RoleUsecase
	audit *usecase.AuditUsecase
}

func NewAdminUserHandler(users *usecase.AdminUserUsecase, roles *usecase.RoleUsecase, audit *usecase.AuditUsecase) *AdminUserHandler {
	return &AdminUserHandler{users: users, roles: roles, audit: audit}
}

type SetRolesRequest struct {
	Roles []string `json:"roles"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

type ReviewApplicationRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, guard *usecase.Guard) {
	// ★ /admin 配下は全部「JWT必須 + ADMIN限定」
	admin := e.Group(
		"/admin",
		middleware.AuthJWT(guard),
		middleware.AdminRoleGuard(guard),
	)

	admin.GET("/users", h.listUsers)
	admin.PUT("/users/:id/roles", h.setRoles)
	admin.PUT("/users/:id/active", h.setActive)
	admin.GET("/role-applications", h.listApplications)
	admin.PUT("/role-applications/:id", h.reviewApplication)
	admin.GET("/audit-logs", h.listAuditLogs)
}

func (h *AdminUserHandler) listUsers(c echo.Context) error {
	page, limit, ok := pageQuery(c)
	if !ok {
		return badRequest(c, "invalid page or limit")
	}

	out, err := h.users.ListUsers(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) setRoles(c echo.Context) error {
	admin, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	userID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	var req SetRolesRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.users.SetUserRoles(c.Request().Context(), admin, userID, req.Roles)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) setActive(c echo.Context) error {
	admin, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	userID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	var req SetActiveRequest
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return badRequest(c, "is_active is required")
	}

	out, err := h.users.SetUserActive(c.Request().Context(), admin, userID, *req.IsActive)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) listApplications(c echo.Context) error {
	out, err := h.roles.ListApplications(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) reviewApplication(c echo.Context) error {
	admin, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	appID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req ReviewApplicationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.roles.Review(c.Request().Context(), admin, appID, usecase.ReviewRoleInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) listAuditLogs(c echo.Context) error {
	in := usecase.ListAuditLogsInput{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
	}

	if v := c.QueryParam("actor_user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid actor_user_id")
		}
		in.ActorUserID = &id
	}
	if v := c.QueryParam("resource_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid resource_id")
		}
		in.ResourceID = &id
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		in.Limit = l
	}
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return badRequest(c, "invalid offset")
		}
		in.Offset = o
	}

	out, err := h.audit.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

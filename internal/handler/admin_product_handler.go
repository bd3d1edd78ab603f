package handler

import (
	"net/http"

	"fulfillment/internal/middleware"
	"fulfillment/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 在庫が少ない商品の一覧（ADMINのみ）
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

type lowStockResponse struct {
	Threshold int64                   `json:"threshold"`
	Items     []usecase.ProductOutput `json:"items"`
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, guard *usecase.Guard) {
	e.GET("/products/low-stock", h.lowStock,
		middleware.AuthJWT(guard),
		middleware.AdminRoleGuard(guard),
	)
}

func (h *AdminProductHandler) lowStock(c echo.Context) error {
	items, err := h.uc.ListLowStock(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, lowStockResponse{Threshold: h.uc.Threshold(), Items: items})
}

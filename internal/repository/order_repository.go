package repository

import (
	"context"

	"fulfillment/internal/domain/model"
)

// 一覧の絞り込み。nilの条件は使わない
type OrderListFilter struct {
	UserID    *int64
	ShipperID *int64
	Status    *model.OrderStatus
	Page      int
	Limit     int
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 状態遷移の直前に使う（行ロック）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	UpdateShipper(ctx context.Context, orderID int64, shipperID int64) error
	// 新しい順
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
}

package repository

import (
	"context"

	"fulfillment/internal/domain/model"
)

// 注文明細。チェックアウト時の商品名・単価を持つので作成後は変えない
type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	// 一覧表示用。注文IDごとにまとめて返す（明細の無い注文はキーなし）
	ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error)
}

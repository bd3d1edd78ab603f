package repository

import (
	"context"

	"fulfillment/internal/domain/model"
	repo "fulfillment/internal/repository"

	"gorm.io/gorm"
)

type orderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) repo.OrderItemRepository {
	return &orderItemGormRepository{db: db}
}

// 1回のINSERTで全明細を書く。IDはitemsに埋まる
func (r *orderItemGormRepository) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return translate(r.db.WithContext(ctx).Create(&items).Error)
}

func (r *orderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	byOrder, err := r.ListByOrderIDs(ctx, []int64{orderID})
	if err != nil {
		return []model.OrderItem{}, err
	}
	if items, ok := byOrder[orderID]; ok {
		return items, nil
	}
	return []model.OrderItem{}, nil
}

func (r *orderItemGormRepository) ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	out := make(map[int64][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	var items []model.OrderItem
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("order_id asc, id asc").
		Find(&items).Error; err != nil {
		return nil, translate(err)
	}
	for _, it := range items {
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, nil
}

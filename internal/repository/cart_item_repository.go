package repository

import (
	"context"

	"fulfillment/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 無ければErrNotFound
	FindByUserAndProduct(ctx context.Context, userID int64, productID int64) (model.CartItem, error)
	// 他人の明細はErrNotFound
	FindByIDForUser(ctx context.Context, cartItemID int64, userID int64) (model.CartItem, error)
	Create(ctx context.Context, item *model.CartItem) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	// 注文確定時にカートを空にする
	DeleteByUserID(ctx context.Context, userID int64) error
}

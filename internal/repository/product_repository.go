package repository

import (
	"context"

	"fulfillment/internal/domain/model"
)

// 商品の永続化。カタログのCRUD自体は別サービスの責務で、ここは在庫と価格の参照が中心
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)

	// 行ロック付きで取得（SELECT ... FOR UPDATE）。ID昇順で返す
	FindByIDsForUpdate(ctx context.Context, ids []int64) ([]model.Product, error)

	// 有効な商品のうち 0 < stock < threshold のもの
	ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error)
}

package usecase

import (
	"context"
	"errors"

	"fulfillment/internal/domain/model"
	repo "fulfillment/internal/repository"

	"github.com/shopspring/decimal"
)

// 商品の参照だけ（カタログ管理は別サービス）
type ProductUsecase struct {
	productRepo repo.ProductRepository
	threshold   int64
}

func NewProductUsecase(productRepo repo.ProductRepository, stockThreshold int64) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo, threshold: stockThreshold}
}

type ProductOutput struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int64           `json:"stock_quantity"`
	IsInStock     bool            `json:"is_in_stock"`
	IsLowStock    bool            `json:"is_low_stock"`
}

// 公開中の商品だけ返す
func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (ProductOutput, error) {
	if productID <= 0 {
		return ProductOutput{}, validation(CodeInvalidInput, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, notFound("product not found")
	}
	if err != nil {
		return ProductOutput{}, internal("find product", err)
	}
	if !p.IsActive {
		return ProductOutput{}, notFound("product not found")
	}
	return u.toProductOutput(p), nil
}

// 在庫がしきい値を下回りかけている商品（管理者向け・定期ジョブ）
func (u *ProductUsecase) ListLowStock(ctx context.Context) ([]ProductOutput, error) {
	products, err := u.productRepo.ListLowStock(ctx, u.threshold)
	if err != nil {
		return []ProductOutput{}, internal("list low stock", err)
	}

	outs := make([]ProductOutput, 0, len(products))
	for _, p := range products {
		outs = append(outs, u.toProductOutput(p))
	}
	return outs, nil
}

func (u *ProductUsecase) Threshold() int64 {
	return u.threshold
}

func (u *ProductUsecase) toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		IsInStock:     p.InStock(u.threshold),
		IsLowStock:    p.LowStock(u.threshold),
	}
}

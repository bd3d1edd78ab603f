package usecase

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/domain/model"
	repo "fulfillment/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジックです。
type CartUsecase struct {
	tx        repo.TransactionManager
	threshold int64
}

func NewCartUsecase(tx repo.TransactionManager, stockThreshold int64) *CartUsecase {
	return &CartUsecase{tx: tx, threshold: stockThreshold}
}

// price は商品の今の価格（注文時に確定する）
type CartItemOutput struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int64           `json:"quantity"`
	StockQuantity int64           `json:"stock_quantity"`
	IsInStock     bool            `json:"is_in_stock"`
	IsLowStock    bool            `json:"is_low_stock"`
}

type CartOutput struct {
	Items []CartItemOutput `json:"items"`
	Total decimal.Decimal  `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

// カート取得
func (u *CartUsecase) List(ctx context.Context, userID int64) (CartOutput, error) {
	out := CartOutput{Items: []CartItemOutput{}, Total: decimal.Zero}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return internal("list cart", err)
		}

		for _, it := range items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				// 削除済みの商品は出さない
				continue
			}
			if err != nil {
				return internal("find product", err)
			}

			line := u.toCartItemOutput(it, p)
			out.Items = append(out.Items, line)
			out.Total = out.Total.Add(line.Price.Mul(decimal.NewFromInt(line.Quantity)))
		}
		return nil
	})
	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

// カートに追加（同一商品は数量加算）
func (u *CartUsecase) Add(ctx context.Context, userID int64, in AddCartInput) (CartItemOutput, error) {
	if in.ProductID <= 0 {
		return CartItemOutput{}, validation(CodeInvalidInput, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartItemOutput{}, validation(CodeInvalidInput, "quantity must be >= 1")
	}

	var out CartItemOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 商品チェック（公開のみ）
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("product not found")
		}
		if err != nil {
			return internal("find product", err)
		}
		if !p.IsActive {
			return notFound("product not found")
		}

		existing, err := r.CartItems().FindByUserAndProduct(ctx, userID, in.ProductID)
		switch {
		case err == nil:
			newQty := existing.Quantity + in.Quantity
			if err := checkStock(p, newQty, u.threshold); err != nil {
				return err
			}
			if err := r.CartItems().UpdateQuantity(ctx, existing.ID, newQty); err != nil {
				return internal("update cart item", err)
			}
			existing.Quantity = newQty
			out = u.toCartItemOutput(existing, p)
			return nil

		case errors.Is(err, repo.ErrNotFound):
			if err := checkStock(p, in.Quantity, u.threshold); err != nil {
				return err
			}
			item := model.CartItem{UserID: userID, ProductID: in.ProductID, Quantity: in.Quantity}
			if err := r.CartItems().Create(ctx, &item); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return validation(CodeDuplicate, "cart item already exists")
				}
				return internal("create cart item", err)
			}
			out = u.toCartItemOutput(item, p)
			return nil

		default:
			return internal("find cart item", err)
		}
	})
	if err != nil {
		return CartItemOutput{}, err
	}
	return out, nil
}

// 数量変更（所有チェック＋在庫チェック）
func (u *CartUsecase) Update(ctx context.Context, userID int64, cartItemID int64, quantity int64) (CartItemOutput, error) {
	if cartItemID <= 0 {
		return CartItemOutput{}, validation(CodeInvalidInput, "invalid id")
	}
	if quantity < 1 {
		return CartItemOutput{}, validation(CodeInvalidInput, "quantity must be >= 1")
	}

	var out CartItemOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		item, err := r.CartItems().FindByIDForUser(ctx, cartItemID, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("cart item not found")
		}
		if err != nil {
			return internal("find cart item", err)
		}

		p, err := r.Products().FindByID(ctx, item.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return validation(CodeProductUnavailable, fmt.Sprintf("product %d is no longer available", item.ProductID))
		}
		if err != nil {
			return internal("find product", err)
		}
		if err := checkStock(p, quantity, u.threshold); err != nil {
			return err
		}

		if err := r.CartItems().UpdateQuantity(ctx, item.ID, quantity); err != nil {
			return internal("update cart item", err)
		}
		item.Quantity = quantity
		out = u.toCartItemOutput(item, p)
		return nil
	})
	if err != nil {
		return CartItemOutput{}, err
	}
	return out, nil
}

// 明細削除。他人の明細はNotFound
func (u *CartUsecase) Remove(ctx context.Context, userID int64, cartItemID int64) error {
	if cartItemID <= 0 {
		return validation(CodeInvalidInput, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		item, err := r.CartItems().FindByIDForUser(ctx, cartItemID, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("cart item not found")
		}
		if err != nil {
			return internal("find cart item", err)
		}

		if err := r.CartItems().DeleteByID(ctx, item.ID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("cart item not found")
			}
			return internal("delete cart item", err)
		}
		return nil
	})
}

func (u *CartUsecase) toCartItemOutput(it model.CartItem, p model.Product) CartItemOutput {
	return CartItemOutput{
		ID:            it.ID,
		ProductID:     it.ProductID,
		ProductName:   p.Name,
		Price:         p.Price,
		Quantity:      it.Quantity,
		StockQuantity: p.StockQuantity,
		IsInStock:     p.InStock(u.threshold),
		IsLowStock:    p.LowStock(u.threshold),
	}
}

// 在庫チェック。しきい値未満は品切れ扱い
func checkStock(p model.Product, qty int64, threshold int64) error {
	if !p.InStock(threshold) {
		return validation(CodeOutOfStock, fmt.Sprintf("product %d (%s) is out of stock (threshold: %d)", p.ID, p.Name, threshold))
	}
	if qty > p.StockQuantity {
		return validation(CodeQuantityExceeded, fmt.Sprintf("requested quantity for product %d (%s) exceeds stock", p.ID, p.Name))
	}
	return nil
}

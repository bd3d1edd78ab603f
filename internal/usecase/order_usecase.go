package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"fulfillment/internal/domain/model"
	repo "fulfillment/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	threshold int64
	log       *slog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, stockThreshold int64, logger *slog.Logger) *OrderUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderUsecase{tx: tx, threshold: stockThreshold, log: logger}
}

type CheckoutInput struct {
	ShippingAddress string
	Notes           string
}

// 一覧の範囲
type OrderScope string

const (
	OrderScopeMine     OrderScope = "mine"
	OrderScopeAssigned OrderScope = "assigned"
	OrderScopeAll      OrderScope = "all"
)

type ListOrdersInput struct {
	Scope  OrderScope
	Status string
	Page   int
	Limit  int
}

type OrderItemOutput struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int64           `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	ShipperID       *int64            `json:"shipper_id"`
	Status          string            `json:"status"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	ShippingAddress string            `json:"shipping_address"`
	Notes           string            `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Items           []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// カートを注文に変える。検証が1つでも落ちたら何も書かない
func (u *OrderUsecase) Checkout(ctx context.Context, actor model.User, in CheckoutInput) (OrderOutput, error) {
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return OrderOutput{}, validation(CodeInvalidInput, "shipping_address is required")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cartItems, err := r.CartItems().ListByUserID(ctx, actor.ID)
		if err != nil {
			return internal("list cart", err)
		}
		if len(cartItems) == 0 {
			return validation(CodeEmptyCart, "cart is empty")
		}

		//商品行をID昇順でロック
		ids := make([]int64, 0, len(cartItems))
		for _, ci := range cartItems {
			ids = append(ids, ci.ProductID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		products, err := r.Products().FindByIDsForUpdate(ctx, ids)
		if err != nil {
			return internal("lock products", err)
		}
		byID := make(map[int64]model.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		//先に全明細を検証する
		for _, ci := range cartItems {
			p, ok := byID[ci.ProductID]
			if !ok || !p.IsActive {
				return validation(CodeProductUnavailable, fmt.Sprintf("product %d is not available", ci.ProductID))
			}
			if err := checkStock(p, ci.Quantity, u.threshold); err != nil {
				return err
			}
		}

		//スナップショット（この時点の価格で確定）
		total := decimal.Zero
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		for _, ci := range cartItems {
			p := byID[ci.ProductID]
			item := model.OrderItem{
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				Quantity:            ci.Quantity,
				PriceAtOrder:        p.Price,
			}
			orderItems = append(orderItems, item)
			total = total.Add(item.Subtotal())
		}

		order := model.Order{
			UserID:          actor.ID,
			Status:          model.OrderStatusPending,
			TotalPrice:      total,
			ShippingAddress: address,
			Notes:           strings.TrimSpace(in.Notes),
		}
		if err := r.Orders().Create(ctx, &order); err != nil {
			return internal("create order", err)
		}

		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			return internal("create order items", err)
		}

		//在庫減算（ロック済みなので通常は失敗しない）
		for _, it := range orderItems {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return internal("decrease stock", err)
			}
			if !ok {
				return validation(CodeQuantityExceeded, fmt.Sprintf("requested quantity for product %d exceeds stock", it.ProductID))
			}
		}

		if err := r.CartItems().DeleteByUserID(ctx, actor.ID); err != nil {
			return internal("clear cart", err)
		}

		out = toOrderOutput(order, orderItems)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.InfoContext(ctx, "order placed",
		slog.Int64("order_id", out.ID),
		slog.Int64("user_id", actor.ID),
		slog.String("total", out.TotalPrice.StringFixed(2)),
		slog.Int("lines", len(out.Items)),
	)
	return out, nil
}

// 注文一覧（新しい順）
func (u *OrderUsecase) ListOrders(ctx context.Context, actor model.User, in ListOrdersInput) (OrderListOutput, error) {
	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = 20
	}
	if in.Page < 1 {
		return OrderListOutput{}, validation(CodeInvalidInput, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return OrderListOutput{}, validation(CodeInvalidInput, "invalid limit")
	}

	f := repo.OrderListFilter{Page: in.Page, Limit: in.Limit}

	if strings.TrimSpace(in.Status) != "" {
		st, ok := model.ParseOrderStatus(in.Status)
		if !ok {
			return OrderListOutput{}, validation(CodeInvalidStatus, fmt.Sprintf("invalid status %q", in.Status))
		}
		f.Status = &st
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: in.Page, Limit: in.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		roles, err := loadRoles(ctx, r.Roles(), actor.ID)
		if err != nil {
			return err
		}

		actorID := actor.ID
		switch in.Scope {
		case "", OrderScopeMine:
			f.UserID = &actorID
		case OrderScopeAssigned:
			if !roles.Has(model.RoleShipper) {
				return forbidden(CodeInsufficientPermission, "shipper role required")
			}
			f.ShipperID = &actorID
		case OrderScopeAll:
			switch {
			case roles.Has(model.RoleAdmin):
			case roles.Has(model.RoleShipper):
				// 配送担当は自分の担当分だけ
				f.ShipperID = &actorID
			default:
				return forbidden(CodeInsufficientPermission, "admin or shipper role required")
			}
		default:
			return validation(CodeInvalidInput, fmt.Sprintf("invalid scope %q", in.Scope))
		}

		orders, total, err := r.Orders().List(ctx, f)
		if err != nil {
			return internal("list orders", err)
		}
		out.Total = total

		ids := make([]int64, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		itemsByOrder, err := r.OrderItems().ListByOrderIDs(ctx, ids)
		if err != nil {
			return internal("list order items", err)
		}
		for _, o := range orders {
			out.Items = append(out.Items, toOrderOutput(o, itemsByOrder[o.ID]))
		}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// 注文詳細。本人・管理者・担当の配送者だけ見られる
func (u *OrderUsecase) GetOrder(ctx context.Context, actor model.User, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, validation(CodeInvalidInput, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("order not found")
		}
		if err != nil {
			return internal("find order", err)
		}

		if !o.IsOwnedBy(actor.ID) {
			roles, err := loadRoles(ctx, r.Roles(), actor.ID)
			if err != nil {
				return err
			}
			visible := roles.Has(model.RoleAdmin) ||
				(roles.Has(model.RoleShipper) && o.IsAssignedTo(actor.ID))
			if !visible {
				return forbidden(CodeInsufficientPermission, "not allowed to view this order")
			}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return internal("list order items", err)
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 本人によるキャンセル。PENDING/CONFIRMEDのみで、明細の数量を在庫に戻す
func (u *OrderUsecase) CancelOrder(ctx context.Context, actor model.User, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, validation(CodeInvalidInput, "invalid id")
	}

	var out OrderOutput
	var before model.OrderStatus

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("order not found")
		}
		if err != nil {
			return internal("find order", err)
		}
		if !o.IsOwnedBy(actor.ID) {
			return forbidden(CodeNotOwner, "only the owner can cancel this order")
		}
		before = o.Status

		out, err = u.cancelLocked(ctx, r, actor.ID, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.InfoContext(ctx, "order cancelled",
		slog.Int64("order_id", out.ID),
		slog.Int64("actor_id", actor.ID),
		slog.String("from", string(before)),
	)
	return out, nil
}

// ロック済みの注文をキャンセルにして在庫を戻す
func (u *OrderUsecase) cancelLocked(ctx context.Context, r repo.TxRepos, actorID int64, o model.Order) (OrderOutput, error) {
	if !o.Status.Cancellable() {
		return OrderOutput{}, validation(CodeInvalidTransition,
			fmt.Sprintf("only PENDING/CONFIRMED orders can be cancelled (current: %s)", o.Status))
	}

	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, internal("list order items", err)
	}
	if err := restock(ctx, r, items); err != nil {
		return OrderOutput{}, err
	}

	before := o
	o.Status = model.OrderStatusCancelled
	if err := r.Orders().UpdateStatus(ctx, o.ID, o.Status); err != nil {
		return OrderOutput{}, internal("update status", err)
	}
	if err := writeOrderAudit(ctx, r, actorID, model.AuditActionCancelOrder, before, o); err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o, items), nil
}

// 明細の数量をそのまま在庫へ戻す（カートの中身は見ない）
func restock(ctx context.Context, r repo.TxRepos, items []model.OrderItem) error {
	for _, it := range items {
		if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			return internal("increase stock", err)
		}
	}
	return nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductNameSnapshot,
			Quantity:     it.Quantity,
			PriceAtOrder: it.PriceAtOrder,
			Subtotal:     it.Subtotal(),
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		ShipperID:       o.ShipperID,
		Status:          string(o.Status),
		TotalPrice:      o.TotalPrice,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           outItems,
	}
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"fulfillment/internal/domain/model"
	repo "fulfillment/internal/repository"
)

// 監査ログに残す注文の状態
type orderAuditSnapshot struct {
	Status    model.OrderStatus `json:"status"`
	ShipperID *int64            `json:"shipper_id"`
}

// ステータス更新。誰が何に変えられるかはロールで決まる
//   - ADMIN: 何でも（状態だけ変える。在庫は触らない）
//   - SHIPPER: SHIPPED/DELIVEREDのみ。他の配送者の担当分は不可
//   - 本人: CANCELLEDのみ（CancelOrderと同じ）
func (u *OrderUsecase) TransitionOrder(ctx context.Context, actor model.User, orderID int64, status string) (OrderOutput, error) {
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
		before = o.Status

		target, ok := model.ParseOrderStatus(status)
		if !ok {
			return validation(CodeInvalidStatus, fmt.Sprintf("invalid status %q", status))
		}

		roles, err := loadRoles(ctx, r.Roles(), actor.ID)
		if err != nil {
			return err
		}

		switch {
		case roles.Has(model.RoleAdmin):
			out, err = u.adminTransition(ctx, r, actor.ID, o, target)
			return err

		case o.IsOwnedBy(actor.ID) && target == model.OrderStatusCancelled:
			out, err = u.cancelLocked(ctx, r, actor.ID, o)
			return err

		case roles.Has(model.RoleShipper):
			out, err = u.shipperTransition(ctx, r, actor.ID, o, target)
			return err

		default:
			return forbidden(CodeInsufficientPermission, "not allowed to change this order")
		}
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.InfoContext(ctx, "order status changed",
		slog.Int64("order_id", out.ID),
		slog.Int64("actor_id", actor.ID),
		slog.String("from", string(before)),
		slog.String("to", out.Status),
	)
	return out, nil
}

// 管理者は現在の状態に関係なく設定できる。在庫を戻すのは本人のキャンセルだけ
func (u *OrderUsecase) adminTransition(ctx context.Context, r repo.TxRepos, actorID int64, o model.Order, target model.OrderStatus) (OrderOutput, error) {
	before := o
	o.Status = target
	if err := r.Orders().UpdateStatus(ctx, o.ID, target); err != nil {
		return OrderOutput{}, internal("update status", err)
	}
	if err := writeOrderAudit(ctx, r, actorID, model.AuditActionUpdateOrderStatus, before, o); err != nil {
		return OrderOutput{}, err
	}
	return loadOrderOutput(ctx, r, o)
}

func (u *OrderUsecase) shipperTransition(ctx context.Context, r repo.TxRepos, actorID int64, o model.Order, target model.OrderStatus) (OrderOutput, error) {
	// 他の配送者の担当分は触れない
	if o.HasShipper() && !o.IsAssignedTo(actorID) {
		return OrderOutput{}, forbidden(CodeShipperConflict, "order is assigned to another shipper")
	}
	if !target.ShipperSettable() {
		return OrderOutput{}, forbidden(CodeInsufficientPermission, "shipper can only set SHIPPED or DELIVERED")
	}
	if o.Status.IsTerminal() {
		return OrderOutput{}, validation(CodeInvalidTransition, fmt.Sprintf("order is already %s", o.Status))
	}

	before := o
	o.Status = target
	if err := r.Orders().UpdateStatus(ctx, o.ID, target); err != nil {
		return OrderOutput{}, internal("update status", err)
	}
	if !o.HasShipper() {
		if err := r.Orders().UpdateShipper(ctx, o.ID, actorID); err != nil {
			return OrderOutput{}, internal("update shipper", err)
		}
		shipperID := actorID
		o.ShipperID = &shipperID
	}
	if err := writeOrderAudit(ctx, r, actorID, model.AuditActionUpdateOrderStatus, before, o); err != nil {
		return OrderOutput{}, err
	}
	return loadOrderOutput(ctx, r, o)
}

// 配送担当の割り当て（管理者のみ）。相手はSHIPPERかADMINであること
func (u *OrderUsecase) AssignShipper(ctx context.Context, actor model.User, orderID int64, shipperID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, validation(CodeInvalidInput, "invalid id")
	}
	if shipperID <= 0 {
		return OrderOutput{}, validation(CodeInvalidInput, "invalid shipper_id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		roles, err := loadRoles(ctx, r.Roles(), actor.ID)
		if err != nil {
			return err
		}
		if !roles.Has(model.RoleAdmin) {
			return forbidden(CodeInsufficientPermission, "admin role required")
		}

		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("order not found")
		}
		if err != nil {
			return internal("find order", err)
		}

		shipper, err := r.Users().FindByID(ctx, shipperID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("shipper not found")
		}
		if err != nil {
			return internal("find shipper", err)
		}

		shipperRoles, err := loadRoles(ctx, r.Roles(), shipper.ID)
		if err != nil {
			return err
		}
		if !shipperRoles.HasAny(model.RoleShipper, model.RoleAdmin) {
			return validation(CodeInvalidShipper, fmt.Sprintf("user %d is not a shipper", shipper.ID))
		}

		before := o
		if err := r.Orders().UpdateShipper(ctx, o.ID, shipper.ID); err != nil {
			return internal("update shipper", err)
		}
		id := shipper.ID
		o.ShipperID = &id

		if err := writeOrderAudit(ctx, r, actor.ID, model.AuditActionAssignShipper, before, o); err != nil {
			return err
		}

		out, err = loadOrderOutput(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.log.InfoContext(ctx, "shipper assigned",
		slog.Int64("order_id", out.ID),
		slog.Int64("actor_id", actor.ID),
		slog.Int64("shipper_id", shipperID),
	)
	return out, nil
}

func loadOrderOutput(ctx context.Context, r repo.TxRepos, o model.Order) (OrderOutput, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, internal("list order items", err)
	}
	return toOrderOutput(o, items), nil
}

// ★監査ログ。注文の変更と同じTxで書く
func writeOrderAudit(ctx context.Context, r repo.TxRepos, actorID int64, action model.AuditAction, before model.Order, after model.Order) error {
	beforeJSON, err := json.Marshal(orderAuditSnapshot{Status: before.Status, ShipperID: before.ShipperID})
	if err != nil {
		return internal("marshal audit", err)
	}
	afterJSON, err := json.Marshal(orderAuditSnapshot{Status: after.Status, ShipperID: after.ShipperID})
	if err != nil {
		return internal("marshal audit", err)
	}

	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   after.ID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
	}); err != nil {
		return internal("write audit log", err)
	}
	return nil
}

package repository

import (
	"context"
	"time"

	"fulfillment/internal/domain/model"
)

// 監査ログの絞り込み条件。nil・空の項目は条件にしない
type AuditLogFilter struct {
	ActorUserID *int64
	// どれかに一致（注文系だけ、など）
	Actions      []model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// 監査ログは追記のみ。更新・削除はしない
type AuditLogRepository interface {
	// 注文・ユーザーの変更と同じTxで書く
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順。totalはLimit/Offset前の件数
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, int64, error)
}

package repository

import (
	"context"

	"fulfillment/internal/domain/model"
)

// ロールと付与（UserRole）の窓口
type RoleRepository interface {
	// 無ければ作る（起動時のseed用）
	Ensure(ctx context.Context, name model.RoleName, description string) (model.Role, error)
	FindByName(ctx context.Context, name model.RoleName) (model.Role, error)

	// そのユーザーに今付与されているロール名（DBが正）
	ListNamesByUserID(ctx context.Context, userID int64) ([]model.RoleName, error)

	// 付与（既にあれば何もしない）
	Grant(ctx context.Context, userID int64, roleID int64) error

	// 付与を全部入れ替える
	ReplaceGrants(ctx context.Context, userID int64, roleIDs []int64) error
}

package repository

import (
	"context"

	"fulfillment/internal/domain/model"
)

type RoleApplicationRepository interface {
	Create(ctx context.Context, app *model.RoleApplication) error
	FindByID(ctx context.Context, id int64) (model.RoleApplication, error)
	// 同じロールへの審査待ち申請があるか
	HasPending(ctx context.Context, userID int64, role model.RoleName) (bool, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.RoleApplication, error)
	// statusが空なら全件
	List(ctx context.Context, status model.RoleApplicationStatus) ([]model.RoleApplication, error)
	Update(ctx context.Context, app model.RoleApplication) error
}

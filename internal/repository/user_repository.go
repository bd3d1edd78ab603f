package repository

import (
	"context"

	"fulfillment/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（IDが埋まる）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。無ければErrNotFound
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	// 列ごとの更新。読んだ行を書き戻さないので他の変更を潰さない
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	SetActive(ctx context.Context, userID int64, active bool) error
	List(ctx context.Context, page int, limit int) ([]model.User, int64, error)
}

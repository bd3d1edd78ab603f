package repository

import (
	"context"

	"fulfillment/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleGormRepository struct {
	db *gorm.DB
}

func NewRoleGormRepository(db *gorm.DB) *RoleGormRepository {
	return &RoleGormRepository{db: db}
}

// 無ければ作る
func (r *RoleGormRepository) Ensure(ctx context.Context, name model.RoleName, description string) (model.Role, error) {
	// 説明文は作成時だけ使う（検索条件には入れない）
	var role model.Role
	err := r.db.WithContext(ctx).
		Where(model.Role{Name: name}).
		Attrs(model.Role{Description: description}).
		FirstOrCreate(&role).Error
	if err != nil {
		return model.Role{}, translate(err)
	}
	return role, nil
}

func (r *RoleGormRepository) FindByName(ctx context.Context, name model.RoleName) (model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return model.Role{}, translate(err)
	}
	return role, nil
}

// user_roles経由で今のロール名を引く
func (r *RoleGormRepository) ListNamesByUserID(ctx context.Context, userID int64) ([]model.RoleName, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&model.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name asc").
		Pluck("roles.name", &names).Error
	if err != nil {
		return nil, err
	}

	out := make([]model.RoleName, 0, len(names))
	for _, n := range names {
		out = append(out, model.RoleName(n))
	}
	return out, nil
}

// 既にあれば何もしない
func (r *RoleGormRepository) Grant(ctx context.Context, userID int64, roleID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserRole{UserID: userID, RoleID: roleID}).Error
}

// 付与の入れ替え。呼び出し側のTxの中で使う
func (r *RoleGormRepository) ReplaceGrants(ctx context.Context, userID int64, roleIDs []int64) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("user_id = ?", userID).Delete(&model.UserRole{}).Error; err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}

	grants := make([]model.UserRole, 0, len(roleIDs))
	seen := make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		grants = append(grants, model.UserRole{UserID: userID, RoleID: id})
	}
	return translate(db.Create(&grants).Error)
}

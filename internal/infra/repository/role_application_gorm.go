package repository

import (
	"context"

	"fulfillment/internal/domain/model"
	repo "fulfillment/internal/repository"

	"gorm.io/gorm"
)

type RoleApplicationGormRepository struct {
	db *gorm.DB
}

func NewRoleApplicationGormRepository(db *gorm.DB) *RoleApplicationGormRepository {
	return &RoleApplicationGormRepository{db: db}
}

func (r *RoleApplicationGormRepository) Create(ctx context.Context, app *model.RoleApplication) error {
	return translate(r.db.WithContext(ctx).Create(app).Error)
}

func (r *RoleApplicationGormRepository) FindByID(ctx context.Context, id int64) (model.RoleApplication, error) {
	var app model.RoleApplication
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return model.RoleApplication{}, translate(err)
	}
	return app, nil
}

func (r *RoleApplicationGormRepository) HasPending(ctx context.Context, userID int64, role model.RoleName) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.RoleApplication{}).
		Where("user_id = ? AND role_name = ? AND status = ?", userID, role, model.RoleApplicationPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RoleApplicationGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.RoleApplication, error) {
	var apps []model.RoleApplication
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&apps).Error; err != nil {
		return []model.RoleApplication{}, err
	}
	return apps, nil
}

func (r *RoleApplicationGormRepository) List(ctx context.Context, status model.RoleApplicationStatus) ([]model.RoleApplication, error) {
	q := r.db.WithContext(ctx).Model(&model.RoleApplication{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var apps []model.RoleApplication
	if err := q.Order("id desc").Find(&apps).Error; err != nil {
		return []model.RoleApplication{}, err
	}
	return apps, nil
}

// 審査結果の保存
func (r *RoleApplicationGormRepository) Update(ctx context.Context, app model.RoleApplication) error {
	res := r.db.WithContext(ctx).
		Model(&model.RoleApplication{}).
		Where("id = ?", app.ID).
		Updates(map[string]interface{}{
			"status":      app.Status,
			"reviewed_by": app.ReviewedBy,
			"admin_notes": app.AdminNotes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

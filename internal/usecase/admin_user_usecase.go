package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fulfillment/internal/domain/model"
	repo "fulfillment/internal/repository"
)

// 管理者によるユーザー管理。ロールの変更は次のリクエストから効く
type AdminUserUsecase struct {
	tx repo.TransactionManager
}

func NewAdminUserUsecase(tx repo.TransactionManager) *AdminUserUsecase {
	return &AdminUserUsecase{tx: tx}
}

type UserListOutput struct {
	Items []UserOutput `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *AdminUserUsecase) ListUsers(ctx context.Context, page int, limit int) (UserListOutput, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 50
	}
	if page < 1 {
		return UserListOutput{}, validation(CodeInvalidInput, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return UserListOutput{}, validation(CodeInvalidInput, "invalid limit")
	}

	out := UserListOutput{Items: []UserOutput{}, Page: page, Limit: limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		users, total, err := r.Users().List(ctx, page, limit)
		if err != nil {
			return internal("list users", err)
		}
		out.Total = total

		for _, usr := range users {
			roles, err := loadRoles(ctx, r.Roles(), usr.ID)
			if err != nil {
				return err
			}
			out.Items = append(out.Items, toUserOutput(usr, roles))
		}
		return nil
	})
	if err != nil {
		return UserListOutput{}, err
	}
	return out, nil
}

// ロールを丸ごと入れ替える。未知のロール名は400
func (u *AdminUserUsecase) SetUserRoles(ctx context.Context, admin model.User, userID int64, roleNames []string) (UserOutput, error) {
	if userID <= 0 {
		return UserOutput{}, validation(CodeInvalidInput, "invalid id")
	}

	names := make([]model.RoleName, 0, len(roleNames))
	for _, s := range roleNames {
		name, ok := model.ParseRoleName(s)
		if !ok {
			return UserOutput{}, validation(CodeInvalidInput, fmt.Sprintf("unknown role %q", s))
		}
		names = append(names, name)
	}
	next := model.NewRoleSet(names...)

	var out UserOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		target, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("user not found")
		}
		if err != nil {
			return internal("find user", err)
		}

		current, err := r.Roles().ListNamesByUserID(ctx, userID)
		if err != nil {
			return internal("list roles", err)
		}

		roleIDs := make([]int64, 0, len(next))
		for _, name := range next.Names() {
			role, err := r.Roles().FindByName(ctx, name)
			if errors.Is(err, repo.ErrNotFound) {
				return notFound(fmt.Sprintf("role %s not found", name))
			}
			if err != nil {
				return internal("find role", err)
			}
			roleIDs = append(roleIDs, role.ID)
		}

		if err := r.Roles().ReplaceGrants(ctx, userID, roleIDs); err != nil {
			return internal("replace grants", err)
		}

		beforeJSON, err := json.Marshal(map[string][]string{"roles": model.NewRoleSet(current...).Strings()})
		if err != nil {
			return internal("marshal audit", err)
		}
		afterJSON, err := json.Marshal(map[string][]string{"roles": next.Strings()})
		if err != nil {
			return internal("marshal audit", err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  admin.ID,
			Action:       model.AuditActionUpdateUserRoles,
			ResourceType: model.AuditResourceUser,
			ResourceID:   userID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
		}); err != nil {
			return internal("write audit log", err)
		}

		roles, err := loadRoles(ctx, r.Roles(), userID)
		if err != nil {
			return err
		}
		out = toUserOutput(target, roles)
		return nil
	})
	if err != nil {
		return UserOutput{}, err
	}
	return out, nil
}

// アカウントの有効/停止。停止したユーザーのトークンは次のリクエストから403
func (u *AdminUserUsecase) SetUserActive(ctx context.Context, admin model.User, userID int64, active bool) (UserOutput, error) {
	if userID <= 0 {
		return UserOutput{}, validation(CodeInvalidInput, "invalid id")
	}
	if userID == admin.ID && !active {
		return UserOutput{}, validation(CodeInvalidInput, "cannot deactivate yourself")
	}

	var out UserOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		target, err := r.Users().FindByID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("user not found")
		}
		if err != nil {
			return internal("find user", err)
		}

		before := target.IsActive
		target.IsActive = active
		if err := r.Users().SetActive(ctx, target.ID, active); err != nil {
			return internal("update user", err)
		}

		beforeJSON, err := json.Marshal(map[string]bool{"is_active": before})
		if err != nil {
			return internal("marshal audit", err)
		}
		afterJSON, err := json.Marshal(map[string]bool{"is_active": active})
		if err != nil {
			return internal("marshal audit", err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  admin.ID,
			Action:       model.AuditActionUpdateUserStatus,
			ResourceType: model.AuditResourceUser,
			ResourceID:   userID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
		}); err != nil {
			return internal("write audit log", err)
		}

		roles, err := loadRoles(ctx, r.Roles(), userID)
		if err != nil {
			return err
		}
		out = toUserOutput(target, roles)
		return nil
	})
	if err != nil {
		return UserOutput{}, err
	}
	return out, nil
}

package usecase

import (
	"context"
	"errors"

	"fulfillment/internal/domain/model"
	"fulfillment/internal/infra/token"
	repo "fulfillment/internal/repository"
)

// トークンから利用者を特定し、ロールで絞る。
// ロールは毎回DBから読む（トークンの中身は信用しない）
type Guard struct {
	tokens TokenService
	users  repo.UserRepository
	roles  repo.RoleRepository
}

func NewGuard(tokens TokenService, users repo.UserRepository, roles repo.RoleRepository) *Guard {
	return &Guard{tokens: tokens, users: users, roles: roles}
}

// トークンを検証して、今のユーザーを返す
func (g *Guard) Authenticate(ctx context.Context, raw string) (model.User, error) {
	claims, err := g.tokens.Verify(raw)
	if err != nil {
		if errors.Is(err, token.ErrCredentialExpired) {
			return model.User{}, unauthorized(CodeCredentialExpired, "credential expired")
		}
		return model.User{}, unauthorized(CodeCredentialInvalid, "credential invalid")
	}

	user, err := g.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		// 発行後に消えたユーザー
		return model.User{}, unauthorized(CodeUserNotFound, "user not found")
	}
	if err != nil {
		return model.User{}, internal("find user", err)
	}

	if !user.IsActive {
		return model.User{}, forbidden(CodeInactive, "user is inactive")
	}
	return user, nil
}

// 今のロール。付与がなければUSER扱い
func (g *Guard) CurrentRoles(ctx context.Context, user model.User) (model.RoleSet, error) {
	return loadRoles(ctx, g.roles, user.ID)
}

// どれか1つのロールを持っていれば通す
func (g *Guard) RequireAnyRole(ctx context.Context, user model.User, required ...model.RoleName) (model.User, error) {
	roles, err := g.CurrentRoles(ctx, user)
	if err != nil {
		return model.User{}, err
	}
	if !roles.HasAny(required...) {
		return model.User{}, forbidden(CodeInsufficientPermission, "insufficient permissions")
	}
	return user, nil
}

func loadRoles(ctx context.Context, roles repo.RoleRepository, userID int64) (model.RoleSet, error) {
	names, err := roles.ListNamesByUserID(ctx, userID)
	if err != nil {
		return nil, internal("list roles", err)
	}
	if len(names) == 0 {
		return model.NewRoleSet(model.RoleUser), nil
	}
	return model.NewRoleSet(names...), nil
}

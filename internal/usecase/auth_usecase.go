package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"fulfillment/internal/domain/model"
	repo "fulfillment/internal/repository"
)

// usecaseが入力チェックに依存する約束
type AuthValidator interface {
	ValidateRegister(username string, email string, password string) error
	ValidateLogin(username string, password string) error
}

// handlerからusecaseに渡す入力
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

type LoginInput struct {
	Username string
	Password string
}

type UserOutput struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	IsActive bool     `json:"is_active"`
	Roles    []string `json:"roles"`
}

// handlerがJSONにして返す
type AuthOutput struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int64      `json:"expires_in"`
	User        UserOutput `json:"user"`
}

type AuthUsecase struct {
	tx        repo.TransactionManager
	users     repo.UserRepository
	roles     repo.RoleRepository
	validator AuthValidator
	hasher    PasswordHasher
	tokens    TokenService
	clock     Clock
}

func NewAuthUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	roles repo.RoleRepository,
	validator AuthValidator,
	hasher PasswordHasher,
	tokens TokenService,
	clock Clock,
) *AuthUsecase {
	return &AuthUsecase{
		tx:        tx,
		users:     users,
		roles:     roles,
		validator: validator,
		hasher:    hasher,
		tokens:    tokens,
		clock:     clock,
	}
}

// 会員登録。USERロールを付けてトークンを返す
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (AuthOutput, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := u.validator.ValidateRegister(in.Username, in.Email, in.Password); err != nil {
		return AuthOutput{}, validation(CodeInvalidInput, "invalid username, email or password")
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return AuthOutput{}, internal("hash password", err)
	}

	var user model.User
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//重複チェック
		if _, err := r.Users().FindByUsername(ctx, in.Username); err == nil {
			return validation(CodeDuplicate, "username or email already registered")
		} else if !errors.Is(err, repo.ErrNotFound) {
			return internal("find user", err)
		}
		if _, err := r.Users().FindByEmail(ctx, in.Email); err == nil {
			return validation(CodeDuplicate, "username or email already registered")
		} else if !errors.Is(err, repo.ErrNotFound) {
			return internal("find user", err)
		}

		user = model.User{
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hashed,
			FullName:     strings.TrimSpace(in.FullName),
			IsActive:     true,
		}
		if err := r.Users().Create(ctx, &user); err != nil {
			// 同時登録
			if errors.Is(err, repo.ErrDuplicate) {
				return validation(CodeDuplicate, "username or email already registered")
			}
			return internal("create user", err)
		}

		role, err := r.Roles().Ensure(ctx, model.RoleUser, "Regular user role")
		if err != nil {
			return internal("ensure role", err)
		}
		if err := r.Roles().Grant(ctx, user.ID, role.ID); err != nil {
			return internal("grant role", err)
		}
		return nil
	})
	if err != nil {
		return AuthOutput{}, err
	}

	return u.issue(user, model.NewRoleSet(model.RoleUser))
}

// ログイン。ロールはDBの今の値を載せる
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (AuthOutput, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := u.validator.ValidateLogin(in.Username, in.Password); err != nil {
		return AuthOutput{}, validation(CodeInvalidInput, "username and password are required")
	}

	user, err := u.users.FindByUsername(ctx, in.Username)
	if errors.Is(err, repo.ErrNotFound) {
		return AuthOutput{}, unauthorized(CodeInvalidCredentials, "invalid credentials")
	}
	if err != nil {
		return AuthOutput{}, internal("find user", err)
	}

	//パスワード照合
	if !u.hasher.Verify(in.Password, user.PasswordHash) {
		return AuthOutput{}, unauthorized(CodeInvalidCredentials, "invalid credentials")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return AuthOutput{}, forbidden(CodeInactive, "user is inactive")
	}

	roles, err := loadRoles(ctx, u.roles, user.ID)
	if err != nil {
		return AuthOutput{}, err
	}
	return u.issue(user, roles)
}

// 自分の情報
func (u *AuthUsecase) Me(ctx context.Context, user model.User) (UserOutput, error) {
	roles, err := loadRoles(ctx, u.roles, user.ID)
	if err != nil {
		return UserOutput{}, err
	}
	return toUserOutput(user, roles), nil
}

// パスワード変更。今のパスワードが合っていること
func (u *AuthUsecase) ChangePassword(ctx context.Context, actor model.User, current string, next string) error {
	// 認証時の行ではなく最新の行で確認する
	user, err := u.users.FindByID(ctx, actor.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return unauthorized(CodeUserNotFound, "user not found")
	}
	if err != nil {
		return internal("find user", err)
	}
	if !user.IsActive {
		return forbidden(CodeInactive, "user is inactive")
	}
	if !u.hasher.Verify(current, user.PasswordHash) {
		return validation(CodeInvalidCredentials, "current password is incorrect")
	}
	if err := u.validator.ValidateRegister(user.Username, user.Email, next); err != nil {
		return validation(CodeInvalidInput, "new password must be 8-72 characters")
	}

	hashed, err := u.hasher.Hash(next)
	if err != nil {
		return internal("hash password", err)
	}
	if err := u.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return unauthorized(CodeUserNotFound, "user not found")
		}
		return internal("update user", err)
	}
	return nil
}

// 起動時のseed。ロール3種と管理者ユーザーを用意する
func (u *AuthUsecase) EnsureAdmin(ctx context.Context, username string, email string, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, validation(CodeInvalidInput, "admin username and password are required")
	}

	var admin model.User
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		descriptions := map[model.RoleName]string{
			model.RoleUser:    "Regular user role",
			model.RoleShipper: "Shipper role",
			model.RoleAdmin:   "Administrator role",
		}
		ensured := make(map[model.RoleName]model.Role, len(descriptions))
		for _, name := range model.AllRoleNames() {
			role, err := r.Roles().Ensure(ctx, name, descriptions[name])
			if err != nil {
				return internal("ensure role", err)
			}
			ensured[name] = role
		}

		existing, err := r.Users().FindByUsername(ctx, username)
		switch {
		case err == nil:
			admin = existing
		case errors.Is(err, repo.ErrNotFound):
			hashed, err := u.hasher.Hash(password)
			if err != nil {
				return internal("hash password", err)
			}
			admin = model.User{
				Username:     username,
				Email:        strings.ToLower(strings.TrimSpace(email)),
				PasswordHash: hashed,
				FullName:     "Administrator",
				IsActive:     true,
			}
			if err := r.Users().Create(ctx, &admin); err != nil {
				return internal("create admin", err)
			}
		default:
			return internal("find admin", err)
		}

		for _, name := range []model.RoleName{model.RoleAdmin, model.RoleUser} {
			if err := r.Roles().Grant(ctx, admin.ID, ensured[name].ID); err != nil {
				return internal("grant role", err)
			}
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return admin, nil
}

func (u *AuthUsecase) issue(user model.User, roles model.RoleSet) (AuthOutput, error) {
	now := u.clock.Now()
	accessToken, expiresAt, err := u.tokens.Issue(user.ID, user.Username, roles.Strings())
	if err != nil {
		return AuthOutput{}, internal("issue token", err)
	}

	return AuthOutput{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(expiresAt.Sub(now) / time.Second),
		User:        toUserOutput(user, roles),
	}, nil
}

func toUserOutput(user model.User, roles model.RoleSet) UserOutput {
	return UserOutput{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		IsActive: user.IsActive,
		Roles:    roles.Strings(),
	}
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/domain/model"
	repo "fulfillment/internal/repository"
)

// ロール申請（USER→SHIPPERなど）
type RoleUsecase struct {
	tx repo.TransactionManager
}

func NewRoleUsecase(tx repo.TransactionManager) *RoleUsecase {
	return &RoleUsecase{tx: tx}
}

type ApplyRoleInput struct {
	RoleName string
	Reason   string
}

type ReviewRoleInput struct {
	Status     string
	AdminNotes string
}

type RoleApplicationOutput struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	RoleName   string    `json:"role_name"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason"`
	AdminNotes string    `json:"admin_notes"`
	ReviewedBy *int64    `json:"reviewed_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// 申請。持っているロールや審査待ちがあるロールには出せない
func (u *RoleUsecase) Apply(ctx context.Context, actor model.User, in ApplyRoleInput) (RoleApplicationOutput, error) {
	name, ok := model.ParseRoleName(in.RoleName)
	if !ok {
		return RoleApplicationOutput{}, notFound("role not found")
	}

	var out RoleApplicationOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Roles().FindByName(ctx, name); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("role not found")
			}
			return internal("find role", err)
		}

		// USERフォールバックは付与済みとみなさない
		held, err := r.Roles().ListNamesByUserID(ctx, actor.ID)
		if err != nil {
			return internal("list roles", err)
		}
		if model.NewRoleSet(held...).Has(name) {
			return validation(CodeDuplicate, "you already have this role")
		}

		pending, err := r.RoleApplications().HasPending(ctx, actor.ID, name)
		if err != nil {
			return internal("find pending application", err)
		}
		if pending {
			return validation(CodeDuplicate, "you already have a pending application for this role")
		}

		app := model.RoleApplication{
			UserID:   actor.ID,
			RoleName: name,
			Status:   model.RoleApplicationPending,
			Reason:   strings.TrimSpace(in.Reason),
		}
		if err := r.RoleApplications().Create(ctx, &app); err != nil {
			return internal("create application", err)
		}
		out = toRoleApplicationOutput(app)
		return nil
	})
	if err != nil {
		return RoleApplicationOutput{}, err
	}
	return out, nil
}

// 自分の申請一覧
func (u *RoleUsecase) ListMine(ctx context.Context, actor model.User) ([]RoleApplicationOutput, error) {
	var outs []RoleApplicationOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		apps, err := r.RoleApplications().ListByUserID(ctx, actor.ID)
		if err != nil {
			return internal("list applications", err)
		}
		outs = toRoleApplicationOutputs(apps)
		return nil
	})
	if err != nil {
		return []RoleApplicationOutput{}, err
	}
	return outs, nil
}

// 管理者向け一覧。statusが空なら全件
func (u *RoleUsecase) ListApplications(ctx context.Context, status string) ([]RoleApplicationOutput, error) {
	var st model.RoleApplicationStatus
	if strings.TrimSpace(status) != "" {
		parsed, ok := model.ParseRoleApplicationStatus(strings.ToUpper(strings.TrimSpace(status)))
		if !ok {
			return []RoleApplicationOutput{}, validation(CodeInvalidStatus, fmt.Sprintf("invalid status %q", status))
		}
		st = parsed
	}

	var outs []RoleApplicationOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		apps, err := r.RoleApplications().List(ctx, st)
		if err != nil {
			return internal("list applications", err)
		}
		outs = toRoleApplicationOutputs(apps)
		return nil
	})
	if err != nil {
		return []RoleApplicationOutput{}, err
	}
	return outs, nil
}

// 審査。APPROVEDならロールを付与する
func (u *RoleUsecase) Review(ctx context.Context, admin model.User, applicationID int64, in ReviewRoleInput) (RoleApplicationOutput, error) {
	if applicationID <= 0 {
		return RoleApplicationOutput{}, validation(CodeInvalidInput, "invalid id")
	}
	st, ok := model.ParseRoleApplicationStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !ok || st == model.RoleApplicationPending {
		return RoleApplicationOutput{}, validation(CodeInvalidStatus, "status must be APPROVED or REJECTED")
	}

	var out RoleApplicationOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		app, err := r.RoleApplications().FindByID(ctx, applicationID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("application not found")
		}
		if err != nil {
			return internal("find application", err)
		}
		if app.Status != model.RoleApplicationPending {
			return validation(CodeInvalidTransition, fmt.Sprintf("application is already %s", app.Status))
		}

		before := app
		reviewer := admin.ID
		app.Status = st
		app.AdminNotes = strings.TrimSpace(in.AdminNotes)
		app.ReviewedBy = &reviewer

		if st == model.RoleApplicationApproved {
			role, err := r.Roles().FindByName(ctx, app.RoleName)
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("role not found")
			}
			if err != nil {
				return internal("find role", err)
			}
			if err := r.Roles().Grant(ctx, app.UserID, role.ID); err != nil {
				return internal("grant role", err)
			}
		}

		if err := r.RoleApplications().Update(ctx, app); err != nil {
			return internal("update application", err)
		}

		beforeJSON, _ := json.Marshal(map[string]string{"status": string(before.Status)})
		afterJSON, _ := json.Marshal(map[string]string{"status": string(app.Status), "role_name": string(app.RoleName)})
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  admin.ID,
			Action:       model.AuditActionReviewRoleApplication,
			ResourceType: model.AuditResourceRoleApplication,
			ResourceID:   app.ID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
		}); err != nil {
			return internal("write audit log", err)
		}

		out = toRoleApplicationOutput(app)
		return nil
	})
	if err != nil {
		return RoleApplicationOutput{}, err
	}
	return out, nil
}

func toRoleApplicationOutput(a model.RoleApplication) RoleApplicationOutput {
	return RoleApplicationOutput{
		ID:         a.ID,
		UserID:     a.UserID,
		RoleName:   string(a.RoleName),
		Status:     string(a.Status),
		Reason:     a.Reason,
		AdminNotes: a.AdminNotes,
		ReviewedBy: a.ReviewedBy,
		CreatedAt:  a.CreatedAt,
	}
}

func toRoleApplicationOutputs(apps []model.RoleApplication) []RoleApplicationOutput {
	outs := make([]RoleApplicationOutput, 0, len(apps))
	for _, a := range apps {
		outs = append(outs, toRoleApplicationOutput(a))
	}
	return outs
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/domain/model"
	repo "fulfillment/internal/repository"
)

type AuditUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditUsecase(auditRepo repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo}
}

// handlerで受け取った文字列のまま渡す
type ListAuditLogsInput struct {
	ActorUserID *int64
	// カンマ区切りで複数指定できる（例: CANCEL_ORDER,UPDATE_ORDER_STATUS）
	Action       string
	ResourceType string
	ResourceID   *int64
	From         string
	To           string
	Limit        int
	Offset       int
}

type AuditLogListOutput struct {
	Items  []model.AuditLog `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

func (u *AuditUsecase) List(ctx context.Context, in ListAuditLogsInput) (AuditLogListOutput, error) {
	if in.Limit == 0 {
		in.Limit = 50
	}
	if in.Limit < 0 || in.Limit > 200 {
		return AuditLogListOutput{}, validation(CodeInvalidInput, "invalid limit")
	}
	if in.Offset < 0 {
		return AuditLogListOutput{}, validation(CodeInvalidInput, "invalid offset")
	}

	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}

	if rt := strings.TrimSpace(in.ResourceType); rt != "" {
		resource, ok := model.ParseAuditResourceType(rt)
		if !ok {
			return AuditLogListOutput{}, validation(CodeInvalidInput, fmt.Sprintf("unknown resource_type %q", rt))
		}
		f.ResourceType = &resource
	}

	actions, err := parseAuditActions(in.Action, f.ResourceType)
	if err != nil {
		return AuditLogListOutput{}, err
	}
	f.Actions = actions

	// IDは種類ごとの採番なので種類が決まらないと意味がない
	if f.ResourceID != nil && f.ResourceType == nil {
		rt, ok := sharedResourceType(actions)
		if !ok {
			return AuditLogListOutput{}, validation(CodeInvalidInput, "resource_type is required with resource_id")
		}
		f.ResourceType = &rt
	}

	// 期間はRFC3339。toは含まない
	if in.From != "" {
		t, ok := parseDateTimeRFC3339(in.From)
		if !ok {
			return AuditLogListOutput{}, validation(CodeInvalidInput, "invalid from")
		}
		f.CreatedFrom = t
	}
	if in.To != "" {
		t, ok := parseDateTimeRFC3339(in.To)
		if !ok {
			return AuditLogListOutput{}, validation(CodeInvalidInput, "invalid to")
		}
		f.CreatedTo = t
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && !f.CreatedFrom.Before(*f.CreatedTo) {
		return AuditLogListOutput{}, validation(CodeInvalidInput, "from must be before to")
	}

	logs, total, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, internal("list audit logs", err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return AuditLogListOutput{Items: logs, Total: total, Limit: in.Limit, Offset: in.Offset}, nil
}

// 対象の種類と合わない操作は400
func parseAuditActions(raw string, resource *model.AuditResourceType) ([]model.AuditAction, error) {
	var out []model.AuditAction
	seen := map[model.AuditAction]bool{}
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		a, ok := model.ParseAuditAction(part)
		if !ok {
			return nil, validation(CodeInvalidInput, fmt.Sprintf("unknown action %q", strings.TrimSpace(part)))
		}
		if resource != nil && a.ResourceType() != *resource {
			return nil, validation(CodeInvalidInput, fmt.Sprintf("action %s is not recorded for %s", a, *resource))
		}
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out, nil
}

func sharedResourceType(actions []model.AuditAction) (model.AuditResourceType, bool) {
	if len(actions) == 0 {
		return "", false
	}
	rt := actions[0].ResourceType()
	for _, a := range actions[1:] {
		if a.ResourceType() != rt {
			return "", false
		}
	}
	return rt, true
}

func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

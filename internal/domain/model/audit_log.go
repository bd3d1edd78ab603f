package model

import (
	"strings"
	"time"
)

type AuditAction string

const (
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//所有者による注文キャンセル。
	AuditActionCancelOrder AuditAction = "CANCEL_ORDER"
	//配送担当の割り当て。
	AuditActionAssignShipper AuditAction = "ASSIGN_SHIPPER"
	//ユーザーのロールを置き換えた操作。
	AuditActionUpdateUserRoles AuditAction = "UPDATE_USER_ROLES"
	//アカウントの有効/停止。
	AuditActionUpdateUserStatus AuditAction = "UPDATE_USER_STATUS"
	//ロール申請の承認/却下。
	AuditActionReviewRoleApplication AuditAction = "REVIEW_ROLE_APPLICATION"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceOrder           AuditResourceType = "order"
	AuditResourceUser            AuditResourceType = "user"
	AuditResourceRoleApplication AuditResourceType = "role_application"
)

var auditActionResources = map[AuditAction]AuditResourceType{
	AuditActionUpdateOrderStatus:     AuditResourceOrder,
	AuditActionCancelOrder:           AuditResourceOrder,
	AuditActionAssignShipper:         AuditResourceOrder,
	AuditActionUpdateUserRoles:       AuditResourceUser,
	AuditActionUpdateUserStatus:      AuditResourceUser,
	AuditActionReviewRoleApplication: AuditResourceRoleApplication,
}

// 大文字小文字は問わない
func ParseAuditAction(s string) (AuditAction, bool) {
	a := AuditAction(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := auditActionResources[a]
	return a, ok
}

func ParseAuditResourceType(s string) (AuditResourceType, bool) {
	rt := AuditResourceType(strings.ToLower(strings.TrimSpace(s)))
	switch rt {
	case AuditResourceOrder, AuditResourceUser, AuditResourceRoleApplication:
		return rt, true
	}
	return "", false
}

// 操作が記録される対象の種類
func (a AuditAction) ResourceType() AuditResourceType {
	return auditActionResources[a]
}

// 監査ログ。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

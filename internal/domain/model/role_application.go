package model

import "time"

type RoleApplicationStatus string

const (
	RoleApplicationPending  RoleApplicationStatus = "PENDING"
	RoleApplicationApproved RoleApplicationStatus = "APPROVED"
	RoleApplicationRejected RoleApplicationStatus = "REJECTED"
)

func ParseRoleApplicationStatus(s string) (RoleApplicationStatus, bool) {
	switch RoleApplicationStatus(s) {
	case RoleApplicationPending:
		return RoleApplicationPending, true
	case RoleApplicationApproved:
		return RoleApplicationApproved, true
	case RoleApplicationRejected:
		return RoleApplicationRejected, true
	default:
		return "", false
	}
}

// ロール申請（USER→SHIPPERなど）。承認されたらUserRoleを追加する
type RoleApplication struct {
	ID         int64                 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64                 `gorm:"not null;index" json:"user_id"`
	RoleName   RoleName              `gorm:"type:varchar(20);not null" json:"role_name"`
	Status     RoleApplicationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Reason     string                `gorm:"type:text" json:"reason"`
	ReviewedBy *int64                `json:"reviewed_by"`
	AdminNotes string                `gorm:"type:text" json:"admin_notes"`
	CreatedAt  time.Time             `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time             `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

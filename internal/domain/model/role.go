package model

import (
	"sort"
	"strings"
	"time"
)

type RoleName string

const (
	RoleUser    RoleName = "USER"
	RoleShipper RoleName = "SHIPPER"
	RoleAdmin   RoleName = "ADMIN"
)

// 定義済みのロール一覧
func AllRoleNames() []RoleName {
	return []RoleName{RoleUser, RoleShipper, RoleAdmin}
}

// 外部入力からロール名へ。一覧にないものはfalse
func ParseRoleName(s string) (RoleName, bool) {
	switch RoleName(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleShipper:
		return RoleShipper, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

type Role struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        RoleName  `gorm:"type:varchar(20);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// ユーザーとロールの紐付け（多対多）
type UserRole struct {
	UserID    int64     `gorm:"primaryKey" json:"user_id"`
	RoleID    int64     `gorm:"primaryKey;index" json:"role_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

type RoleSet map[RoleName]struct{}

func NewRoleSet(names ...RoleName) RoleSet {
	s := make(RoleSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s RoleSet) Has(name RoleName) bool {
	_, ok := s[name]
	return ok
}

// どれか1つでも持っていればtrue
func (s RoleSet) HasAny(names ...RoleName) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

// 名前順のスライス（JWTやレスポンス用）
func (s RoleSet) Names() []RoleName {
	out := make([]RoleName, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s RoleSet) Strings() []string {
	names := s.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

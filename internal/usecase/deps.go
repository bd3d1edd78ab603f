package usecase

import (
	"time"

	"fulfillment/internal/infra/token"
)

// 時刻を外から差し替える（テスト用）
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// JWTの発行と検証
type TokenService interface {
	Issue(userID int64, username string, roles []string) (string, time.Time, error)
	Verify(raw string) (token.Claims, error)
}

// パスワードのハッシュ化と照合
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain string, hashed string) bool
}

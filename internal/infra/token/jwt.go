package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// アクセストークンの種別タグ
const accessType = "access"

var (
	ErrCredentialExpired = errors.New("credential expired")
	ErrCredentialInvalid = errors.New("credential invalid")
)

// 検証済みの中身。rolesは発行時点のもので、認可には使わない
type Claims struct {
	UserID    int64
	Username  string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	JWTID     string
}

// JWTのペイロード
type accessClaims struct {
	jwt.RegisteredClaims
	UserID   int64    `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Type     string   `json:"type"`
}

// HS256で署名・検証する
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("jwt ttl must be positive")
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: now}, nil
}

// トークン発行。期限も返す
func (i *Issuer) Issue(userID int64, username string, roles []string) (string, time.Time, error) {
	now := i.now().UTC()
	expiresAt := now.Add(i.ttl)

	if roles == nil {
		roles = []string{}
	}

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   userID,
		Username: username,
		Roles:    roles,
		Type:     accessType,
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// 署名・種別・期限を確認する。失敗はErrCredentialExpiredかErrCredentialInvalidだけ
func (i *Issuer) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrCredentialInvalid
	}

	var parsed accessClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Type != accessType {
		return Claims{}, ErrCredentialInvalid
	}
	if parsed.UserID <= 0 || parsed.ExpiresAt == nil {
		return Claims{}, ErrCredentialInvalid
	}

	// 期限は自前の時計で見る（テストで差し替えるため）
	now := i.now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, ErrCredentialExpired
	}

	claims := Claims{
		UserID:    parsed.UserID,
		Username:  parsed.Username,
		Roles:     parsed.Roles,
		ExpiresAt: exp,
		JWTID:     parsed.ID,
	}
	if claims.Roles == nil {
		claims.Roles = []string{}
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// jwtライブラリのエラーは全部Invalidに寄せる
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrCredentialExpired
	}
	return fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
}

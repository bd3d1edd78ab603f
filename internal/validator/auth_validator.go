package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ユーザー名は英数字と_ - . のみ
var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

type AuthValidator struct{}

func NewAuthValidator() *AuthValidator {
	return &AuthValidator{}
}

// 会員登録の入力を検証
func (v *AuthValidator) ValidateRegister(username string, email string, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	// 必須チェック
	if username == "" || email == "" || password == "" {
		return ErrInvalidInput
	}

	n := utf8.RuneCountInString(username)
	if n < 3 || n > 50 || !usernameRe.MatchString(username) {
		return ErrInvalidInput
	}

	// email形式
	if len(email) > 255 || !emailRe.MatchString(email) {
		return ErrInvalidInput
	}

	// パスワードは8〜72文字（bcryptの上限）
	if len(password) < 8 || len(password) > 72 {
		return ErrInvalidInput
	}

	return nil
}

// ログインの入力を検証
func (v *AuthValidator) ValidateLogin(username string, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrInvalidInput
	}
	return nil
}

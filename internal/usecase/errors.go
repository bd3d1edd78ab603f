package usecase

import (
	"errors"
	"fmt"
)

// エラーの種類。handlerでHTTPステータスに変換する
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized" // 401
	KindForbidden    ErrorKind = "forbidden"    // 403
	KindNotFound     ErrorKind = "not_found"    // 404
	KindValidation   ErrorKind = "validation"   // 400
)

// errors.Isで種類だけ判定したいとき用
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
)

// 詳細コード
const (
	CodeCredentialInvalid      = "credential_invalid"
	CodeCredentialExpired      = "credential_expired"
	CodeUserNotFound           = "user_not_found"
	CodeInvalidCredentials     = "invalid_credentials"
	CodeInactive               = "inactive"
	CodeInsufficientPermission = "insufficient_permissions"
	CodeShipperConflict        = "shipper_conflict"
	CodeNotOwner               = "not_owner"
	CodeOutOfStock             = "out_of_stock"
	CodeQuantityExceeded       = "quantity_exceeded"
	CodeInvalidTransition      = "invalid_transition"
	CodeInvalidStatus          = "invalid_status"
	CodeInvalidShipper         = "invalid_shipper"
	CodeEmptyCart              = "empty_cart"
	CodeDuplicate              = "duplicate"
	CodeInvalidInput           = "invalid_input"
	CodeProductUnavailable     = "product_unavailable"
	CodeNotFound               = "not_found"
)

// usecaseが返す業務エラー
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	default:
		return nil
	}
}

func unauthorized(code, message string) error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

func forbidden(code, message string) error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

func notFound(message string) error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: message}
}

func validation(code, message string) error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// 想定外（DBなど）。handlerで500
func internal(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

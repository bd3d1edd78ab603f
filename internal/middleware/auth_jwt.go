package middleware

import (
	"context"
	"net/http"
	"strings"

	"fulfillment/internal/domain/model"
	"fulfillment/internal/usecase"

	"github.com/labstack/echo/v4"
)

const CtxUserKey = "user" // model.User

// トークンから今のユーザーを引く（usecase.Guard）
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, error)
}

// bearerAuth用のミドルウェア。
// 署名と期限の検証に加えて、ユーザーの存在と有効性も毎回DBで確認する
func AuthJWT(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("authentication required", usecase.CodeCredentialInvalid))
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON("authentication required", usecase.CodeCredentialInvalid))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("authentication required", usecase.CodeCredentialInvalid))
			}

			user, err := auth.Authenticate(c.Request().Context(), rawToken)
			if err != nil {
				return writeAuthError(c, err)
			}

			//contextへ保存
			c.Set(CtxUserKey, user)
			return next(c)
		}
	}
}

// AuthJWTが入れたユーザー
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(CtxUserKey).(model.User)
	if !ok || u.ID <= 0 {
		return model.User{}, false
	}
	return u, true
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func errorJSON(msg string, code string) errorResponse {
	return errorResponse{Error: msg, Code: code}
}

func writeAuthError(c echo.Context, err error) error {
	e, ok := usecase.AsError(err)
	if !ok {
		c.Logger().Errorf("auth middleware: %v", err)
		return c.JSON(http.StatusInternalServerError, errorJSON("internal error", ""))
	}

	switch e.Kind {
	case usecase.KindUnauthorized:
		return c.JSON(http.StatusUnauthorized, errorJSON("authentication required", e.Code))
	case usecase.KindForbidden:
		return c.JSON(http.StatusForbidden, errorJSON("access denied", e.Code))
	default:
		return c.JSON(http.StatusInternalServerError, errorJSON("internal error", ""))
	}
}

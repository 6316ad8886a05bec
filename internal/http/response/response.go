// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков и сопоставления ошибок
// рантайма с кодами HTTP.
package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lesson-runtime/internal/services/catalog"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/gate"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/playback"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/session"
	"github.com/magabrotheeeer/lesson-runtime/internal/store"
)

// Response описывает стандартную структуру JSON‑ответа.
// Поле Status: статус запроса ("OK" или "Error").
// Поле Error: текст ошибки (при неуспехе).
// Поле Data: данные ответа.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// OK возвращает успешный Response без данных.
func OK() Response {
	return Response{Status: StatusOK}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// FromError подбирает код HTTP и тело ответа для ошибки рантайма.
func FromError(err error) (int, Response) {
	var (
		invalid *session.ValidationError
		authErr *session.AuthError
		locked  *gate.LockedError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, Error(invalid.Error())
	case errors.As(err, &locked):
		return http.StatusPaymentRequired, Response{
			Status: StatusError,
			Error:  locked.Error(),
			Data:   map[string]any{"upsell": true, "reason": locked.Reason},
		}
	case errors.Is(err, session.ErrAlreadyInProgress),
		errors.Is(err, session.ErrAlreadyAuthenticated),
		errors.Is(err, session.ErrAuthCancelled):
		return http.StatusConflict, Error(err.Error())
	case errors.As(err, &authErr):
		return authStatus(authErr.Kind), Error(authErr.Error())
	case errors.Is(err, catalog.ErrUnknownItem):
		return http.StatusNotFound, Error(err.Error())
	case errors.Is(err, store.ErrClosed), errors.Is(err, playback.ErrNotStarted):
		return http.StatusServiceUnavailable, Error("runtime is not running")
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, Error("request timed out")
	}
	return http.StatusInternalServerError, Error("internal error")
}

// WriteError пишет ответ для ошибки рантайма и возвращает выбранный код.
func WriteError(w http.ResponseWriter, r *http.Request, err error) int {
	status, resp := FromError(err)
	w.WriteHeader(status)
	render.JSON(w, r, resp)
	return status
}

func authStatus(kind session.AuthErrorKind) int {
	switch kind {
	case session.KindInvalidCredentials:
		return http.StatusUnauthorized
	case session.KindDuplicateAccount:
		return http.StatusConflict
	case session.KindNetworkFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

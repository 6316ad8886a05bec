// Package session реализует машину состояний идентификации пользователя:
// вход, регистрацию, гостевой режим и выход.
//
// Состояние задано размеченным вариантом: в каждый момент времени верно ровно одно из
// SignedOut, Guest, Authenticating, Authenticated, AuthFailed. Изменяется только
// через Reduce; вызов внешнего провайдера выполняет слой эффектов стора.
package session

import (
	"encoding/json"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
)

// Status — вариант состояния сессии.
type Status int

const (
	StatusSignedOut Status = iota
	StatusGuest
	StatusAuthenticating
	StatusAuthenticated
	StatusAuthFailed
)

func (s Status) String() string {
	switch s {
	case StatusSignedOut:
		return "signed_out"
	case StatusGuest:
		return "guest"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAuthFailed:
		return "auth_failed"
	default:
		return "unknown"
	}
}

// State — состояние сессии. Поля закрыты, чтобы нельзя было собрать
// противоречивую комбинацию (например, пользователь и гость одновременно).
type State struct {
	status     Status
	user       models.UserIdentity
	method     Method
	failure    error
	generation uint64
}

// Initial возвращает состояние SignedOut.
func Initial() State { return State{status: StatusSignedOut} }

// Status возвращает текущий вариант.
func (s State) Status() Status { return s.status }

// User возвращает пользователя, если сессия в состоянии Authenticated.
func (s State) User() (models.UserIdentity, bool) {
	if s.status != StatusAuthenticated {
		return models.UserIdentity{}, false
	}
	return s.user, true
}

// Method возвращает способ входа, если идёт аутентификация.
func (s State) Method() (Method, bool) {
	if s.status != StatusAuthenticating {
		return "", false
	}
	return s.method, true
}

// Failure возвращает ошибку провайдера в состоянии AuthFailed.
func (s State) Failure() (*AuthError, bool) {
	if s.status != StatusAuthFailed {
		return nil, false
	}
	return AsAuthError(s.failure), true
}

// IsGuest сообщает, работает ли пользователь в гостевом режиме.
func (s State) IsGuest() bool { return s.status == StatusGuest }

// Generation — номер последней попытки аутентификации. Растёт при каждом
// начале входа и при выходе; ответы провайдера с другим номером отбрасываются.
func (s State) Generation() uint64 { return s.generation }

type stateJSON struct {
	Status string               `json:"status"`
	User   *models.UserIdentity `json:"user,omitempty"`
	Method Method               `json:"method,omitempty"`
	Reason string               `json:"reason,omitempty"`
}

func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{Status: s.status.String()}
	if u, ok := s.User(); ok {
		out.User = &u
	}
	if m, ok := s.Method(); ok {
		out.Method = m
	}
	if f, ok := s.Failure(); ok {
		out.Reason = f.Error()
	}
	return json.Marshal(out)
}

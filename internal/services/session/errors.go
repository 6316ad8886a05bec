package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyInProgress — аутентификация уже идёт, второй вызов провайдера не запускается.
	ErrAlreadyInProgress = errors.New("authentication already in progress")
	// ErrAlreadyAuthenticated — пользователь уже вошёл, нужно сначала выйти.
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	// ErrAuthCancelled — попытка входа отменена выходом из аккаунта.
	ErrAuthCancelled = errors.New("authentication cancelled")
)

// ValidationError возвращается синхронно, если обязательные поля пустые.
// Состояние при этом не меняется, провайдер не вызывается.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("field %s is a required field", f))
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// AuthErrorKind — категория ошибки провайдера аутентификации.
type AuthErrorKind int

const (
	KindUnknown AuthErrorKind = iota
	KindInvalidCredentials
	KindNetworkFailure
	KindDuplicateAccount
)

func (k AuthErrorKind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindNetworkFailure:
		return "network_failure"
	case KindDuplicateAccount:
		return "duplicate_account"
	default:
		return "unknown"
	}
}

// AuthError — ошибка внешнего провайдера аутентификации.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	Err     error
}

var (
	ErrInvalidCredentials = &AuthError{Kind: KindInvalidCredentials}
	ErrNetworkFailure     = &AuthError{Kind: KindNetworkFailure}
	ErrDuplicateAccount   = &AuthError{Kind: KindDuplicateAccount}
)

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindInvalidCredentials:
		return "invalid credentials"
	case KindNetworkFailure:
		return "network failure"
	case KindDuplicateAccount:
		return "account already exists"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown authentication error"
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is сравнивает ошибки по категории, чтобы работал errors.Is(err, ErrInvalidCredentials).
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// AsAuthError приводит произвольную ошибку провайдера к AuthError.
func AsAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &AuthError{Kind: KindNetworkFailure, Message: "authentication timed out", Err: err}
	}
	return &AuthError{Kind: KindUnknown, Message: err.Error(), Err: err}
}

package session

import (
	"log/slog"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
)

// Method — способ аутентификации.
type Method string

const (
	MethodEmailSignUp Method = "email_sign_up"
	MethodEmailSignIn Method = "email_sign_in"
	MethodGoogle      Method = "google"
)

// Event — событие сессии.
type Event interface {
	Name() string
	sessionEvent()
}

// SignUpRequested — пользователь отправил форму регистрации.
type SignUpRequested struct {
	DisplayName string
	Email       string
	Password    string
}

// SignInRequested — пользователь отправил форму входа.
type SignInRequested struct {
	Email    string
	Password string
}

// GoogleSignInRequested — пользователь выбрал вход через Google.
type GoogleSignInRequested struct{}

// AuthSucceeded — провайдер подтвердил вход для попытки Generation.
type AuthSucceeded struct {
	Generation uint64
	User       models.UserIdentity
}

// AuthFailed — провайдер отклонил попытку Generation.
type AuthFailed struct {
	Generation uint64
	Err        error
}

// FailureAcknowledged переводит AuthFailed обратно в SignedOut после публикации ошибки.
type FailureAcknowledged struct {
	Generation uint64
}

// GuestRequested — пользователь продолжил без аккаунта.
type GuestRequested struct{}

// SignOutRequested — выход из аккаунта или гостевого режима.
type SignOutRequested struct{}

func (SignUpRequested) Name() string       { return "session.sign_up_requested" }
func (SignInRequested) Name() string       { return "session.sign_in_requested" }
func (GoogleSignInRequested) Name() string { return "session.google_sign_in_requested" }
func (AuthSucceeded) Name() string         { return "session.auth_succeeded" }
func (AuthFailed) Name() string            { return "session.auth_failed" }
func (FailureAcknowledged) Name() string   { return "session.failure_acknowledged" }
func (GuestRequested) Name() string        { return "session.guest_requested" }
func (SignOutRequested) Name() string      { return "session.sign_out_requested" }

func (SignUpRequested) sessionEvent()       {}
func (SignInRequested) sessionEvent()       {}
func (GoogleSignInRequested) sessionEvent() {}
func (AuthSucceeded) sessionEvent()         {}
func (AuthFailed) sessionEvent()            {}
func (FailureAcknowledged) sessionEvent()   {}
func (GuestRequested) sessionEvent()        {}
func (SignOutRequested) sessionEvent()      {}

// Request — параметры вызова провайдера, которые Reduce передаёт слою эффектов.
type Request struct {
	Method      Method
	DisplayName string
	Email       string
	Password    string
	Generation  uint64
}

// LogValue скрывает пароль в логах.
func (r Request) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("method", string(r.Method)),
		slog.String("email", r.Email),
		slog.Uint64("generation", r.Generation),
	)
}

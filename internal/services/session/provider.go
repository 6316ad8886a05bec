package session

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
)

// Provider — внешний сервис аутентификации.
type Provider interface {
	SignUpWithEmail(ctx context.Context, email, password, name string) (models.UserIdentity, error)
	SignInWithEmail(ctx context.Context, email, password string) (models.UserIdentity, error)
	SignInWithGoogle(ctx context.Context) (models.UserIdentity, error)
}

// Call выполняет запрос req через провайдера p.
func Call(ctx context.Context, p Provider, req Request) (models.UserIdentity, error) {
	switch req.Method {
	case MethodEmailSignUp:
		return p.SignUpWithEmail(ctx, req.Email, req.Password, req.DisplayName)
	case MethodEmailSignIn:
		return p.SignInWithEmail(ctx, req.Email, req.Password)
	case MethodGoogle:
		return p.SignInWithGoogle(ctx)
	default:
		return models.UserIdentity{}, fmt.Errorf("session.Call: unsupported method %q", req.Method)
	}
}

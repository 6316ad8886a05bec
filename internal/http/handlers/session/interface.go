package session

import (
	"context"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
)

// Service описывает операции сессии, доступные по HTTP.
type Service interface {
	SignUp(ctx context.Context, name, email, password string) (models.UserIdentity, error)
	SignIn(ctx context.Context, email, password string) (models.UserIdentity, error)
	SignInWithGoogle(ctx context.Context) (models.UserIdentity, error)
	ContinueAsGuest(ctx context.Context) error
	SignOut(ctx context.Context) error
}

package identity

import (
	"context"

	"github.com/magabrotheeeer/lesson-runtime/internal/lib/jwt"
)

// DevGoogleAccount — учётная запись, от имени которой StaticTokenSource выпускает токены.
type DevGoogleAccount struct {
	Subject string
	Name    string
	Email   string
}

// StaticTokenSource выпускает ID-токены для одной заранее заданной учётной записи.
// Заменяет платформенный SDK в локальной сборке.
type StaticTokenSource struct {
	issuer  jwt.Maker
	account DevGoogleAccount
}

// NewStaticTokenSource создаёт источник токенов для account.
func NewStaticTokenSource(issuer jwt.Maker, account DevGoogleAccount) *StaticTokenSource {
	return &StaticTokenSource{issuer: issuer, account: account}
}

// IDToken реализует GoogleTokenSource.
func (s *StaticTokenSource) IDToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.issuer.GenerateToken(s.account.Subject, s.account.Name, s.account.Email)
}

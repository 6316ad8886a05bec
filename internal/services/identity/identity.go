// Package identity содержит внутрипроцессный провайдер аутентификации: каталог учётных записей
// с bcrypt-хешами паролей и вход через Google по ID-токену.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/lesson-runtime/internal/lib/jwt"
	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
	"github.com/magabrotheeeer/lesson-runtime/internal/models"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/session"
)

// PasswordHasher описывает хеширование паролей.
type PasswordHasher interface {
	GetHash(password string) (string, error)
	CompareHash(originalHash, externalPassword string) error
}

// GoogleTokenSource получает ID-токен от платформенного SDK входа через Google.
type GoogleTokenSource interface {
	IDToken(ctx context.Context) (string, error)
}

type account struct {
	user         models.UserIdentity
	passwordHash string
}

// Directory хранит учётные записи в памяти процесса и реализует session.Provider.
type Directory struct {
	hasher   PasswordHasher
	google   GoogleTokenSource
	verifier jwt.Maker
	latency  time.Duration
	log      *slog.Logger

	mu       sync.RWMutex
	accounts map[string]account // ключ: почта в нижнем регистре
}

// Option настраивает Directory.
type Option func(*Directory)

// WithGoogle включает вход через Google.
func WithGoogle(src GoogleTokenSource, verifier jwt.Maker) Option {
	return func(d *Directory) {
		d.google = src
		d.verifier = verifier
	}
}

// WithLatency добавляет задержку к каждому вызову, имитируя сетевой запрос.
func WithLatency(latency time.Duration) Option {
	return func(d *Directory) { d.latency = latency }
}

// NewDirectory создаёт пустой каталог учётных записей.
func NewDirectory(hasher PasswordHasher, log *slog.Logger, opts ...Option) *Directory {
	d := &Directory{
		hasher:   hasher,
		log:      log.With(slog.String("component", "identity")),
		accounts: make(map[string]account),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SignUpWithEmail регистрирует новую учётную запись.
func (d *Directory) SignUpWithEmail(ctx context.Context, email, password, name string) (models.UserIdentity, error) {
	const op = "identity.SignUpWithEmail"
	if err := d.wait(ctx); err != nil {
		return models.UserIdentity{}, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := d.hasher.GetHash(password)
	if err != nil {
		return models.UserIdentity{}, fmt.Errorf("%s: %w", op, err)
	}
	key := normalizeEmail(email)
	user := models.UserIdentity{
		ID:          uuid.NewString(),
		DisplayName: name,
		Email:       strings.TrimSpace(email),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.accounts[key]; exists {
		return models.UserIdentity{}, fmt.Errorf("%s: %w", op, session.ErrDuplicateAccount)
	}
	d.accounts[key] = account{user: user, passwordHash: hashed}
	d.log.Info("account registered", slog.String("user_id", user.ID))
	return user, nil
}

// SignInWithEmail проверяет пароль и возвращает пользователя.
func (d *Directory) SignInWithEmail(ctx context.Context, email, password string) (models.UserIdentity, error) {
	const op = "identity.SignInWithEmail"
	if err := d.wait(ctx); err != nil {
		return models.UserIdentity{}, fmt.Errorf("%s: %w", op, err)
	}

	d.mu.RLock()
	acc, ok := d.accounts[normalizeEmail(email)]
	d.mu.RUnlock()
	if !ok || acc.passwordHash == "" {
		return models.UserIdentity{}, fmt.Errorf("%s: %w", op, session.ErrInvalidCredentials)
	}
	if err := d.hasher.CompareHash(acc.passwordHash, password); err != nil {
		d.log.Info("password mismatch", slog.String("user_id", acc.user.ID))
		return models.UserIdentity{}, fmt.Errorf("%s: %w", op, session.ErrInvalidCredentials)
	}
	return acc.user, nil
}

// SignInWithGoogle проверяет ID-токен и находит или создаёт учётную запись по почте.
// Идентификатор пользователя выводится из subject токена и не меняется между входами.
func (d *Directory) SignInWithGoogle(ctx context.Context) (models.UserIdentity, error) {
	const op = "identity.SignInWithGoogle"
	if d.google == nil || d.verifier == nil {
		return models.UserIdentity{}, fmt.Errorf("%s: %w", op, &session.AuthError{Kind: session.KindUnknown, Message: "google sign-in is not configured"})
	}
	if err := d.wait(ctx); err != nil {
		return models.UserIdentity{}, fmt.Errorf("%s: %w", op, err)
	}

	token, err := d.google.IDToken(ctx)
	if err != nil {
		d.log.Error("failed to obtain google id token", sl.Err(err))
		return models.UserIdentity{}, fmt.Errorf("%s: %w", op, &session.AuthError{Kind: session.KindNetworkFailure, Message: "google sign-in unavailable", Err: err})
	}
	claims, err := d.verifier.ParseToken(token)
	if err != nil {
		d.log.Error("google id token rejected", sl.Err(err))
		return models.UserIdentity{}, fmt.Errorf("%s: %w", op, session.ErrInvalidCredentials)
	}

	key := normalizeEmail(claims.Email)
	d.mu.Lock()
	defer d.mu.Unlock()
	if acc, ok := d.accounts[key]; ok {
		return acc.user, nil
	}
	user := models.UserIdentity{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte("google:"+claims.Subject)).String(),
		DisplayName: claims.Name,
		Email:       claims.Email,
	}
	d.accounts[key] = account{user: user}
	d.log.Info("account registered via google", slog.String("user_id", user.ID))
	return user, nil
}

func (d *Directory) wait(ctx context.Context) error {
	if d.latency <= 0 {
		return asNetworkError(ctx.Err())
	}
	timer := time.NewTimer(d.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return asNetworkError(ctx.Err())
	case <-timer.C:
		return nil
	}
}

func asNetworkError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return &session.AuthError{Kind: session.KindNetworkFailure, Message: "request cancelled", Err: err}
	}
	return &session.AuthError{Kind: session.KindNetworkFailure, Message: "request timed out", Err: err}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package lessonruntime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/lesson-runtime/internal/billing"
	"github.com/magabrotheeeer/lesson-runtime/internal/models"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/catalog"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/entitlement"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/gate"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/playback"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/session"
	"github.com/magabrotheeeer/lesson-runtime/internal/store"
)

// ErrRemoteUnavailable — обработчик команд удалённого управления не зарегистрирован.
var ErrRemoteUnavailable = errors.New("remote control is not available")

// Store — часть центрального стора, которой пользуется Runtime.
type Store interface {
	Snapshot() store.Snapshot
	Apply(ctx context.Context, ev models.Event) (store.Snapshot, error)
	Dispatch(ctx context.Context, ev models.Event) error
	Watch(filter func(store.Snapshot) bool) *store.Watcher
}

// Player — часть контроллера воспроизведения, которой пользуется Runtime.
type Player interface {
	RequestPlay(ctx context.Context, item models.ContentItem) (gate.Decision, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Remote доставляет команды так, как их доставила бы ОС.
type Remote interface {
	Emit(cmd playback.RemoteCommand) bool
}

// Runtime — API, через которое экраны управляют рантаймом.
type Runtime struct {
	store   Store
	player  Player
	catalog *catalog.Catalog
	remote  Remote
	billing billing.Publisher
	log     *slog.Logger
	now     func() time.Time
}

// NewRuntime создаёт Runtime.
func NewRuntime(st Store, player Player, cat *catalog.Catalog, remote Remote, pub billing.Publisher, log *slog.Logger) *Runtime {
	return &Runtime{
		store:   st,
		player:  player,
		catalog: cat,
		remote:  remote,
		billing: pub,
		log:     log.With(slog.String("component", "runtime")),
		now:     time.Now,
	}
}

// Snapshot возвращает текущее состояние.
func (r *Runtime) Snapshot() store.Snapshot {
	return r.store.Snapshot()
}

// Catalog возвращает каталог с решением о доступе для каждого урока.
func (r *Runtime) Catalog() []catalog.Entry {
	snap := r.store.Snapshot()
	return r.catalog.Entries(snap.Entitlement, snap.Rewards, r.now())
}

// SignUp регистрирует пользователя и ждёт ответа провайдера.
func (r *Runtime) SignUp(ctx context.Context, name, email, password string) (models.UserIdentity, error) {
	return r.authenticate(ctx, session.SignUpRequested{DisplayName: name, Email: email, Password: password})
}

// SignIn выполняет вход по email и ждёт ответа провайдера.
func (r *Runtime) SignIn(ctx context.Context, email, password string) (models.UserIdentity, error) {
	return r.authenticate(ctx, session.SignInRequested{Email: email, Password: password})
}

// SignInWithGoogle выполняет вход через Google и ждёт ответа провайдера.
func (r *Runtime) SignInWithGoogle(ctx context.Context) (models.UserIdentity, error) {
	return r.authenticate(ctx, session.GoogleSignInRequested{})
}

// authenticate отправляет запрос на вход и ждёт, пока сессия выйдет из Authenticating
// для этой попытки. Если попытку отменил выход из аккаунта, возвращает ErrAuthCancelled.
func (r *Runtime) authenticate(ctx context.Context, ev models.Event) (models.UserIdentity, error) {
	const op = "lessonruntime.authenticate"

	w := r.store.Watch(func(s store.Snapshot) bool {
		return s.Session.Status() != session.StatusAuthenticating
	})
	defer w.Stop()

	started, err := r.store.Apply(ctx, ev)
	if err != nil {
		return models.UserIdentity{}, err
	}
	gen := started.Session.Generation()

	settled, err := w.Wait(ctx, func(s store.Snapshot) bool {
		return s.Session.Generation() >= gen
	})
	if err != nil {
		return models.UserIdentity{}, fmt.Errorf("%s: %w", op, err)
	}

	s := settled.Session
	if s.Generation() == gen {
		if user, ok := s.User(); ok {
			return user, nil
		}
		if failure, ok := s.Failure(); ok {
			return models.UserIdentity{}, failure
		}
	}
	return models.UserIdentity{}, session.ErrAuthCancelled
}

// ContinueAsGuest переводит сессию в гостевой режим.
func (r *Runtime) ContinueAsGuest(ctx context.Context) error {
	return r.store.Dispatch(ctx, session.GuestRequested{})
}

// SignOut завершает сессию.
func (r *Runtime) SignOut(ctx context.Context) error {
	return r.store.Dispatch(ctx, session.SignOutRequested{})
}

// Play запускает урок по id. Для закрытого урока возвращает решение Locked без ошибки.
func (r *Runtime) Play(ctx context.Context, itemID string) (gate.Decision, error) {
	item, err := r.catalog.Lookup(itemID)
	if err != nil {
		return gate.Decision{}, err
	}
	return r.player.RequestPlay(ctx, item)
}

// Pause ставит воспроизведение на паузу.
func (r *Runtime) Pause(ctx context.Context) error { return r.player.Pause(ctx) }

// Resume продолжает воспроизведение.
func (r *Runtime) Resume(ctx context.Context) error { return r.player.Resume(ctx) }

// Stop останавливает воспроизведение.
func (r *Runtime) Stop(ctx context.Context) error { return r.player.Stop(ctx) }

// Remote передаёт команду удалённого управления. Команда применяется асинхронно.
func (r *Runtime) Remote(cmd playback.RemoteCommand) error {
	if !r.remote.Emit(cmd) {
		return ErrRemoteUnavailable
	}
	return nil
}

// ConfirmSubscription публикует подтверждение подписки. Без expiresAt срок
// считается от текущего момента: месяц или год.
func (r *Runtime) ConfirmSubscription(ctx context.Context, plan entitlement.Plan, expiresAt *time.Time) error {
	const op = "lessonruntime.ConfirmSubscription"

	if expiresAt == nil {
		expiresAt = entitlement.DefaultExpiry(plan, r.now())
	}
	if err := r.billing.Publish(ctx, billing.Confirmed(plan, expiresAt)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.log.Info("subscription confirmation published", slog.String("plan", string(plan)))
	return nil
}

// CancelSubscription публикует отмену подписки.
func (r *Runtime) CancelSubscription(ctx context.Context) error {
	const op = "lessonruntime.CancelSubscription"

	if err := r.billing.Publish(ctx, billing.Cancelled()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.log.Info("subscription cancellation published")
	return nil
}

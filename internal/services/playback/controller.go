package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
	"github.com/magabrotheeeer/lesson-runtime/internal/models"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/gate"
)

// MediaSession — медиасессия платформы. Методы не блокируются:
// о результате загрузки и окончании воспроизведения сообщают вызовы Sink.
type MediaSession interface {
	Load(h Handle, item models.ContentItem, sink Sink) error
	Play(h Handle) error
	Pause(h Handle) error
	Stop(h Handle) error
}

// Sink принимает обратные вызовы медиасессии.
type Sink interface {
	Loaded(h Handle)
	Finished(h Handle)
	Failed(h Handle, err error)
}

// RemoteSource доставляет команды удалённого управления от ОС.
// Register возвращает функцию отмены регистрации.
type RemoteSource interface {
	Register(handler func(RemoteCommand)) (unregister func(), err error)
}

// Dispatcher — часть центрального стора, нужная контроллеру.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev models.Event) error
	Post(ev models.Event)
}

// Controller владеет медиасессией: выполняет команды, которые стор
// получил из Reduce, и превращает обратные вызовы и команды ОС в события стора.
// Обработчик удалённого управления регистрируется один раз на время жизни процесса.
type Controller struct {
	media  MediaSession
	remote RemoteSource
	log    *slog.Logger

	mu         sync.Mutex
	dispatcher Dispatcher
	unregister func()
	started    bool
}

// NewController создаёт контроллер. remote может быть nil, если платформа
// не поддерживает удалённое управление.
func NewController(media MediaSession, remote RemoteSource, log *slog.Logger) *Controller {
	return &Controller{
		media:  media,
		remote: remote,
		log:    log.With(slog.String("component", "playback")),
	}
}

// Start подключает контроллер к стору и регистрирует обработчик команд ОС.
// Повторный вызов возвращает ErrAlreadyStarted.
func (c *Controller) Start(d Dispatcher) error {
	const op = "playback.Start"

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("%s: %w", op, ErrAlreadyStarted)
	}
	if c.remote != nil {
		unregister, err := c.remote.Register(c.HandleRemote)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		c.unregister = unregister
	}
	c.dispatcher = d
	c.started = true
	c.log.Info("playback controller started", slog.Bool("remote", c.remote != nil))
	return nil
}

// Close снимает регистрацию обработчика команд ОС. Вызывается при завершении процесса.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unregister != nil {
		c.unregister()
		c.unregister = nil
	}
}

func (c *Controller) store() Dispatcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatcher
}

// RequestPlay запускает урок. Если урок закрыт подпиской, состояние не меняется
// и возвращается решение Locked: вызывающий код должен показать экран оформления подписки.
func (c *Controller) RequestPlay(ctx context.Context, item models.ContentItem) (gate.Decision, error) {
	d := c.store()
	if d == nil {
		return gate.Decision{}, ErrNotStarted
	}
	err := d.Dispatch(ctx, PlayRequested{Item: item})
	var locked *gate.LockedError
	if errors.As(err, &locked) {
		c.log.Info("play request locked", slog.String("item_id", item.ID), slog.String("reason", string(locked.Reason)))
		return locked.Decision(), nil
	}
	if err != nil {
		return gate.Decision{}, err
	}
	return gate.Unlocked(), nil
}

// Pause ставит воспроизведение на паузу.
func (c *Controller) Pause(ctx context.Context) error {
	return c.dispatch(ctx, PauseRequested{Origin: OriginUI})
}

// Resume продолжает воспроизведение после паузы.
func (c *Controller) Resume(ctx context.Context) error {
	return c.dispatch(ctx, ResumeRequested{Origin: OriginUI})
}

// Stop останавливает текущую сессию.
func (c *Controller) Stop(ctx context.Context) error {
	return c.dispatch(ctx, StopRequested{Origin: OriginUI})
}

func (c *Controller) dispatch(ctx context.Context, ev Event) error {
	d := c.store()
	if d == nil {
		return ErrNotStarted
	}
	return d.Dispatch(ctx, ev)
}

// HandleRemote принимает команду ОС. Может вызываться из любой горутины в любой момент.
func (c *Controller) HandleRemote(cmd RemoteCommand) {
	c.post(RemoteReceived{Command: cmd})
}

func (c *Controller) post(ev Event) {
	d := c.store()
	if d == nil {
		c.log.Warn("event dropped: controller not started", slog.String("event", ev.Name()))
		return
	}
	d.Post(ev)
}

// Execute выполняет команду медиасессии. Вызывается слоем эффектов стора и не блокируется.
func (c *Controller) Execute(cmd Command) {
	log := c.log.With(slog.String("op", cmd.Op.String()), slog.Uint64("handle", uint64(cmd.Handle)))

	var err error
	switch cmd.Op {
	case OpLoad:
		err = c.media.Load(cmd.Handle, cmd.Item, c)
	case OpPlay:
		err = c.media.Play(cmd.Handle)
	case OpPause:
		err = c.media.Pause(cmd.Handle)
	case OpStop:
		err = c.media.Stop(cmd.Handle)
	default:
		err = fmt.Errorf("unknown media op %d", cmd.Op)
	}
	if err == nil {
		log.Debug("media command executed")
		return
	}

	log.Error("media command failed", sl.Err(err))
	if cmd.Op == OpStop {
		return
	}
	if !errors.Is(err, ErrCancelled) && !errors.Is(err, ErrResourceUnavailable) {
		err = fmt.Errorf("%w: %v", ErrResourceUnavailable, err)
	}
	c.post(Failed{Handle: cmd.Handle, Err: err})
}

// Loaded реализует Sink.
func (c *Controller) Loaded(h Handle) { c.post(Loaded{Handle: h}) }

// Finished реализует Sink.
func (c *Controller) Finished(h Handle) { c.post(Finished{Handle: h}) }

// Failed реализует Sink.
func (c *Controller) Failed(h Handle, err error) { c.post(Failed{Handle: h, Err: err}) }

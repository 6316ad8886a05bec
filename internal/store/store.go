package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
	"github.com/magabrotheeeer/lesson-runtime/internal/models"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/gate"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/playback"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/session"
)

// ErrClosed возвращается после Close.
var ErrClosed = errors.New("store closed")

// Listener получает снимок после каждого применённого события.
// Вызывается в горутине стора: внутри можно вызывать только Post, но не Dispatch.
type Listener func(Snapshot)

// MediaExecutor выполняет команды медиасессии. Execute не должен блокироваться.
type MediaExecutor interface {
	Execute(cmd playback.Command)
}

// Recorder собирает метрики стора.
type Recorder interface {
	EventApplied(name string, d time.Duration)
	EventRejected(name string, reason string)
	AuthFinished(method string, err error, d time.Duration)
	PlaybackStarted()
	PlaybackFailed()
	RewardEarned()
}

type envelope struct {
	ev    models.Event
	reply chan result
}

type result struct {
	snap Snapshot
	err  error
}

// Store — единственный владелец состояния. События применяются строго по одному
// в порядке поступления в отдельной горутине.
type Store struct {
	log         *slog.Logger
	auth        session.Provider
	media       MediaExecutor
	metrics     Recorder
	now         func() time.Time
	policy      Policy
	authTimeout time.Duration

	mu        sync.Mutex
	queue     []envelope
	snap      Snapshot
	listeners map[uint64]Listener
	nextID    uint64
	closed    bool

	wake chan struct{}
	done chan struct{}

	// Поля ниже трогает только горутина стора.
	ctx        context.Context
	stop       context.CancelFunc
	authCancel context.CancelFunc
	authWG     sync.WaitGroup
}

// Option настраивает Store.
type Option func(*Store)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPolicy задаёт правила переходов.
func WithPolicy(p Policy) Option {
	return func(s *Store) { s.policy = p }
}

// WithMetrics подключает сбор метрик.
func WithMetrics(r Recorder) Option {
	return func(s *Store) { s.metrics = r }
}

// WithAuthTimeout ограничивает время одного вызова провайдера аутентификации.
func WithAuthTimeout(d time.Duration) Option {
	return func(s *Store) { s.authTimeout = d }
}

// WithMedia подключает исполнителя команд медиасессии.
func WithMedia(m MediaExecutor) Option {
	return func(s *Store) { s.media = m }
}

// New создаёт стор и запускает его горутину. Остановить её нужно через Close.
func New(auth session.Provider, log *slog.Logger, opts ...Option) *Store {
	ctx, stop := context.WithCancel(context.Background())
	s := &Store{
		log:         log.With(slog.String("component", "store")),
		auth:        auth,
		metrics:     nopRecorder{},
		now:         time.Now,
		authTimeout: 30 * time.Second,
		snap:        Initial(),
		listeners:   make(map[uint64]Listener),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		ctx:         ctx,
		stop:        stop,
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.loop()
	return s
}

// Snapshot возвращает последний опубликованный снимок.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Dispatch ставит событие в очередь и ждёт, пока оно будет применено.
// Если ctx отменён раньше, событие всё равно будет применено, а Dispatch вернёт ctx.Err().
func (s *Store) Dispatch(ctx context.Context, ev models.Event) error {
	_, err := s.Apply(ctx, ev)
	return err
}

// Apply работает как Dispatch и дополнительно возвращает снимок сразу после перехода.
func (s *Store) Apply(ctx context.Context, ev models.Event) (Snapshot, error) {
	reply := make(chan result, 1)
	if !s.enqueue(envelope{ev: ev, reply: reply}) {
		return Snapshot{}, ErrClosed
	}
	select {
	case r := <-reply:
		return r.snap, r.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Post ставит событие в очередь и сразу возвращается.
// Безопасно вызывать из любой горутины, в том числе из подписчиков.
func (s *Store) Post(ev models.Event) {
	if !s.enqueue(envelope{ev: ev}) {
		s.log.Debug("event dropped: store closed", sl.Event(ev.Name()))
	}
}

// Subscribe регистрирует подписчика. Возвращённая функция отменяет подписку.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close останавливает горутину стора и отменяет текущий вызов провайдера.
// События, оставшиеся в очереди, отклоняются с ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.signal()
	<-s.done
	s.stop()
	s.authWG.Wait()

	s.mu.Lock()
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()
	for _, env := range pending {
		if env.reply != nil {
			env.reply <- result{err: ErrClosed}
		}
	}
}

func (s *Store) enqueue(env envelope) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, env)
	s.mu.Unlock()
	s.signal()
	return true
}

func (s *Store) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) next() (envelope, bool) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return envelope{}, false
		}
		if len(s.queue) > 0 {
			env := s.queue[0]
			s.queue[0] = envelope{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return env, true
		}
		s.mu.Unlock()
		<-s.wake
	}
}

func (s *Store) loop() {
	defer close(s.done)
	for {
		env, ok := s.next()
		if !ok {
			return
		}
		s.apply(env)
	}
}

func (s *Store) apply(env envelope) {
	name := env.ev.Name()
	log := s.log.With(sl.Event(name))
	start := time.Now()

	s.mu.Lock()
	prev := s.snap
	s.mu.Unlock()

	next, effects, err := Reduce(prev, env.ev, s.now(), s.policy)
	if err != nil {
		s.metrics.EventRejected(name, rejectReason(err))
		log.Info("event rejected", sl.Err(err))
		if env.reply != nil {
			env.reply <- result{snap: prev, err: err}
		}
		return
	}
	next.Version = prev.Version + 1

	s.mu.Lock()
	s.snap = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	for _, eff := range effects {
		s.run(eff, log)
	}

	s.metrics.EventApplied(name, time.Since(start))
	log.Debug("event applied", slog.Uint64("version", next.Version))
	if env.reply != nil {
		env.reply <- result{snap: next}
	}
}

func rejectReason(err error) string {
	var locked *gate.LockedError
	var invalid *session.ValidationError
	switch {
	case errors.As(err, &locked):
		return "locked"
	case errors.As(err, &invalid):
		return "validation"
	case errors.Is(err, session.ErrAlreadyInProgress):
		return "in_progress"
	case errors.Is(err, session.ErrAlreadyAuthenticated):
		return "authenticated"
	case errors.Is(err, ErrUnknownEvent):
		return "unknown"
	}
	return "other"
}

type nopRecorder struct{}

func (nopRecorder) EventApplied(string, time.Duration)        {}
func (nopRecorder) EventRejected(string, string)              {}
func (nopRecorder) AuthFinished(string, error, time.Duration) {}
func (nopRecorder) PlaybackStarted()                          {}
func (nopRecorder) PlaybackFailed()                           {}
func (nopRecorder) RewardEarned()                             {}

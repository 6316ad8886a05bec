// Package media содержит программную медиасессию и шину команд удалённого
// управления. Используются, когда рантайм работает без платформенного плеера:
// в сервере разработки и в тестах.
package media

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/playback"
)

// ErrUnknownHandle — команда пришла для сессии, которой уже нет.
var ErrUnknownHandle = errors.New("media: unknown handle")

type trackState int

const (
	trackLoading trackState = iota
	trackReady
	trackPlaying
	trackPaused
)

type track struct {
	item      models.ContentItem
	sink      playback.Sink
	state     trackState
	timer     *time.Timer
	remaining time.Duration
	since     time.Time
}

// Session имитирует медиасессию платформы на таймерах: загрузка занимает
// LoadDelay, воспроизведение длится Duration урока, умноженную на Speed.
type Session struct {
	log         *slog.Logger
	loadDelay   time.Duration
	speed       float64
	unavailable map[string]struct{}

	mu     sync.Mutex
	tracks map[playback.Handle]*track
}

// Option настраивает Session.
type Option func(*Session)

// WithLoadDelay задаёт время загрузки.
func WithLoadDelay(d time.Duration) Option {
	return func(s *Session) { s.loadDelay = d }
}

// WithSpeed масштабирует длительность уроков. 0.01 превращает 10 минут в 6 секунд.
func WithSpeed(speed float64) Option {
	return func(s *Session) {
		if speed > 0 {
			s.speed = speed
		}
	}
}

// WithUnavailable помечает медиаресурсы, загрузка которых завершится ошибкой.
func WithUnavailable(refs ...string) Option {
	return func(s *Session) {
		for _, ref := range refs {
			s.unavailable[ref] = struct{}{}
		}
	}
}

// NewSession создаёт медиасессию.
func NewSession(log *slog.Logger, opts ...Option) *Session {
	s := &Session{
		log:         log.With(slog.String("component", "media")),
		speed:       1,
		unavailable: make(map[string]struct{}),
		tracks:      make(map[playback.Handle]*track),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load начинает загрузку урока. Результат приходит в sink.
func (s *Session) Load(h playback.Handle, item models.ContentItem, sink playback.Sink) error {
	const op = "media.Load"

	if item.MediaRef == "" {
		return fmt.Errorf("%s: %w: empty media ref for %s", op, playback.ErrResourceUnavailable, item.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tracks[h]; ok {
		return fmt.Errorf("%s: handle %d already loaded", op, h)
	}
	t := &track{
		item:      item,
		sink:      sink,
		state:     trackLoading,
		remaining: time.Duration(float64(item.Duration) * s.speed),
	}
	s.tracks[h] = t
	t.timer = time.AfterFunc(s.loadDelay, func() { s.loaded(h, t) })

	s.log.Debug("loading", slog.Uint64("handle", uint64(h)), slog.String("media_ref", item.MediaRef))
	return nil
}

func (s *Session) loaded(h playback.Handle, t *track) {
	s.mu.Lock()
	if s.tracks[h] != t || t.state != trackLoading {
		s.mu.Unlock()
		return
	}
	if _, bad := s.unavailable[t.item.MediaRef]; bad {
		delete(s.tracks, h)
		s.mu.Unlock()
		t.sink.Failed(h, fmt.Errorf("%w: %s", playback.ErrResourceUnavailable, t.item.MediaRef))
		return
	}
	t.state = trackReady
	s.mu.Unlock()
	t.sink.Loaded(h)
}

// Play запускает или продолжает воспроизведение.
func (s *Session) Play(h playback.Handle) error {
	const op = "media.Play"

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[h]
	if !ok {
		return fmt.Errorf("%s: %w: %d", op, ErrUnknownHandle, h)
	}
	switch t.state {
	case trackReady, trackPaused:
	case trackPlaying:
		return nil
	default:
		return fmt.Errorf("%s: handle %d is not loaded", op, h)
	}
	t.state = trackPlaying
	t.since = time.Now()
	t.timer = time.AfterFunc(t.remaining, func() { s.finished(h, t) })
	return nil
}

func (s *Session) finished(h playback.Handle, t *track) {
	s.mu.Lock()
	if s.tracks[h] != t || t.state != trackPlaying {
		s.mu.Unlock()
		return
	}
	delete(s.tracks, h)
	s.mu.Unlock()
	t.sink.Finished(h)
}

// Pause приостанавливает воспроизведение и запоминает оставшееся время.
func (s *Session) Pause(h playback.Handle) error {
	const op = "media.Pause"

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[h]
	if !ok {
		return fmt.Errorf("%s: %w: %d", op, ErrUnknownHandle, h)
	}
	if t.state != trackPlaying {
		return nil
	}
	t.timer.Stop()
	t.remaining -= time.Since(t.since)
	if t.remaining < 0 {
		t.remaining = 0
	}
	t.state = trackPaused
	return nil
}

// Stop прерывает сессию. Если загрузка ещё не закончилась, sink получит Failed с ErrCancelled.
func (s *Session) Stop(h playback.Handle) error {
	s.mu.Lock()
	t, ok := s.tracks[h]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.tracks, h)
	t.timer.Stop()
	s.mu.Unlock()

	if t.state == trackLoading {
		go t.sink.Failed(h, playback.ErrCancelled)
	}
	return nil
}

// Close останавливает все таймеры.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, t := range s.tracks {
		t.timer.Stop()
		delete(s.tracks, h)
	}
}

// Active возвращает число живых сессий.
func (s *Session) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracks)
}

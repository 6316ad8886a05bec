package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
	"github.com/magabrotheeeer/lesson-runtime/internal/store"
)

// Mirror записывает последний снимок стора в redis, чтобы соседние процессы
// (виджеты, отладочные утилиты) могли его прочитать. Промежуточные снимки,
// которые не успели записаться, схлопываются: пишется только самый свежий.
type Mirror struct {
	cache *Cache
	key   string
	ttl   time.Duration
	log   *slog.Logger

	mu      sync.Mutex
	pending *store.Snapshot
	wake    chan struct{}
}

// NewMirror создаёт зеркало для ключа key.
func NewMirror(c *Cache, key string, ttl time.Duration, log *slog.Logger) *Mirror {
	return &Mirror{
		cache: c,
		key:   key,
		ttl:   ttl,
		log:   log.With(slog.String("component", "mirror")),
		wake:  make(chan struct{}, 1),
	}
}

// Publish реализует store.Listener. Не блокируется.
func (m *Mirror) Publish(snap store.Snapshot) {
	m.mu.Lock()
	m.pending = &snap
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run записывает снимки, пока ctx не отменён. Перед выходом записывает последний снимок.
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case <-m.wake:
			m.flush(ctx)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			m.flush(flushCtx)
			cancel()
			return
		}
	}
}

func (m *Mirror) flush(ctx context.Context) {
	m.mu.Lock()
	snap := m.pending
	m.pending = nil
	m.mu.Unlock()
	if snap == nil {
		return
	}

	if err := m.cache.Set(ctx, m.key, snap, m.ttl); err != nil {
		m.log.Error("failed to mirror snapshot", sl.Err(err), slog.Uint64("version", snap.Version))
		return
	}
	m.log.Debug("snapshot mirrored", slog.Uint64("version", snap.Version))
}

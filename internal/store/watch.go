package store

import (
	"context"
	"sync"
)

const watchBuffer = 32

// Watcher копит снимки, прошедшие фильтр, начиная с момента создания.
// Используется, чтобы дождаться результата асинхронного эффекта без гонки
// между Dispatch и подпиской.
type Watcher struct {
	ch    chan Snapshot
	unsub func()
	once  sync.Once
}

// Watch начинает копить снимки, для которых filter возвращает true.
// Если буфер переполнен, отбрасываются самые старые снимки. Watcher нужно закрыть через Stop.
func (s *Store) Watch(filter func(Snapshot) bool) *Watcher {
	w := &Watcher{ch: make(chan Snapshot, watchBuffer)}
	w.unsub = s.Subscribe(func(snap Snapshot) {
		if filter != nil && !filter(snap) {
			return
		}
		for {
			select {
			case w.ch <- snap:
				return
			default:
			}
			select {
			case <-w.ch:
			default:
			}
		}
	})
	return w
}

// Wait возвращает первый накопленный снимок, удовлетворяющий match.
func (w *Watcher) Wait(ctx context.Context, match func(Snapshot) bool) (Snapshot, error) {
	for {
		select {
		case snap := <-w.ch:
			if match == nil || match(snap) {
				return snap, nil
			}
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
}

// Stop отменяет подписку.
func (w *Watcher) Stop() {
	w.once.Do(w.unsub)
}

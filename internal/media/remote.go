package media

import (
	"errors"
	"sync"

	"github.com/magabrotheeeer/lesson-runtime/internal/services/playback"
)

// ErrAlreadyRegistered — обработчик команд уже зарегистрирован.
var ErrAlreadyRegistered = errors.New("media: remote handler already registered")

// RemoteBus доставляет команды удалённого управления единственному обработчику.
type RemoteBus struct {
	mu      sync.Mutex
	handler func(playback.RemoteCommand)
}

// NewRemoteBus создаёт пустую шину.
func NewRemoteBus() *RemoteBus {
	return &RemoteBus{}
}

// Register реализует playback.RemoteSource.
func (b *RemoteBus) Register(handler func(playback.RemoteCommand)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handler != nil {
		return nil, ErrAlreadyRegistered
	}
	b.handler = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.handler = nil
			b.mu.Unlock()
		})
	}, nil
}

// Emit передаёт команду обработчику. Возвращает false, если обработчика нет.
func (b *RemoteBus) Emit(cmd playback.RemoteCommand) bool {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h == nil {
		return false
	}
	h(cmd)
	return true
}

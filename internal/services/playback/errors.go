package playback

import "errors"

var (
	// ErrResourceUnavailable — медиаресурс не удалось загрузить или воспроизвести.
	ErrResourceUnavailable = errors.New("playback: resource unavailable")
	// ErrCancelled — сессия вытеснена новой или остановлена; пользователю не показывается.
	ErrCancelled = errors.New("playback: cancelled")
	// ErrAlreadyStarted — обработчики удалённого управления уже зарегистрированы.
	ErrAlreadyStarted = errors.New("playback: controller already started")
	// ErrNotStarted — контроллер ещё не подключён к стору.
	ErrNotStarted = errors.New("playback: controller not started")
)

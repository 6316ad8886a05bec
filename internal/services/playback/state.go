// Package playback владеет единственной медиасессией приложения.
//
// Reduce описывает чистые переходы Idle → Loading → Playing → {Paused ⇄ Playing | Stopped → Idle}.
// Controller связывает эти переходы с внешней медиасессией и командами
// удалённого управления от операционной системы.
package playback

import (
	"encoding/json"
	"time"
)

// Status — состояние медиасессии.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Handle идентифицирует конкретную сессию воспроизведения.
// Обратные вызовы медиасессии с устаревшим Handle игнорируются.
type Handle uint64

// State — снимок медиасессии. Не более одной сессии не в Idle.
type State struct {
	Status       Status
	ActiveItemID string
	MediaRef     string
	StartedAt    time.Time
	// Generation — счётчик сессий; у активной сессии Handle(Generation).
	Generation uint64
	// LastError — последняя видимая пользователю ошибка воспроизведения.
	LastError error
}

// Initial возвращает состояние Idle.
func Initial() State { return State{Status: StatusIdle} }

// Handle возвращает идентификатор активной сессии или 0 в Idle.
func (s State) Handle() Handle {
	if s.Status == StatusIdle {
		return 0
	}
	return Handle(s.Generation)
}

// Active сообщает, есть ли сессия не в Idle.
func (s State) Active() bool { return s.Status != StatusIdle }

type stateJSON struct {
	Status       string     `json:"status"`
	ActiveItemID string     `json:"active_item_id,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{Status: s.Status.String(), ActiveItemID: s.ActiveItemID}
	if s.Active() && !s.StartedAt.IsZero() {
		t := s.StartedAt
		out.StartedAt = &t
	}
	if s.LastError != nil {
		out.LastError = s.LastError.Error()
	}
	return json.Marshal(out)
}

package playback

import (
	"errors"
	"fmt"
	"time"
)

// Outcome — последствия перехода для слоя эффектов.
type Outcome struct {
	// Commands выполняются по порядку.
	Commands []Command
	// Started — начата новая сессия.
	Started bool
	// Completed — id урока, дослушанного до конца. Пусто, если завершения не было.
	Completed string
	// Failure — ошибка, которую нужно показать пользователю.
	Failure error
	// FollowUp — событие, которое нужно отправить в стор следом.
	FollowUp Event
}

// Reduce применяет событие к состоянию медиасессии.
// Команды паузы, продолжения и остановки вне подходящего состояния ничего не делают.
func Reduce(s State, ev Event, now time.Time) (State, Outcome) {
	switch e := ev.(type) {
	case PlayRequested:
		return play(s, e, now)

	case Loaded:
		if !s.current(e.Handle) || s.Status != StatusLoading {
			return s, Outcome{}
		}
		s.Status = StatusPlaying
		return s, Outcome{Commands: []Command{{Op: OpPlay, Handle: e.Handle}}}

	case Finished:
		// Таймер окончания может сработать раньше, чем применится пауза.
		if !s.current(e.Handle) || (s.Status != StatusPlaying && s.Status != StatusPaused) {
			return s, Outcome{}
		}
		itemID := s.ActiveItemID
		s.Status = StatusStopped
		return s, Outcome{Completed: itemID, FollowUp: Settled{Handle: e.Handle}}

	case Failed:
		if !s.current(e.Handle) || s.Status == StatusStopped {
			return s, Outcome{}
		}
		next := State{Status: StatusIdle, Generation: s.Generation}
		if errors.Is(e.Err, ErrCancelled) {
			return next, Outcome{}
		}
		err := e.Err
		if !errors.Is(err, ErrResourceUnavailable) {
			err = fmt.Errorf("%w: %s: %v", ErrResourceUnavailable, s.ActiveItemID, e.Err)
		}
		next.LastError = err
		return next, Outcome{Failure: err}

	case PauseRequested:
		if s.Status != StatusPlaying {
			return s, Outcome{}
		}
		s.Status = StatusPaused
		return s, Outcome{Commands: []Command{{Op: OpPause, Handle: s.Handle()}}}

	case ResumeRequested:
		if s.Status != StatusPaused {
			return s, Outcome{}
		}
		s.Status = StatusPlaying
		return s, Outcome{Commands: []Command{{Op: OpPlay, Handle: s.Handle()}}}

	case StopRequested:
		switch s.Status {
		case StatusLoading, StatusPlaying, StatusPaused:
		default:
			return s, Outcome{}
		}
		h := s.Handle()
		s.Status = StatusStopped
		return s, Outcome{
			Commands: []Command{{Op: OpStop, Handle: h}},
			FollowUp: Settled{Handle: h},
		}

	case Settled:
		if !s.current(e.Handle) || s.Status != StatusStopped {
			return s, Outcome{}
		}
		return State{Status: StatusIdle, Generation: s.Generation}, Outcome{}

	case RemoteReceived:
		switch e.Command {
		case RemotePlay:
			return Reduce(s, ResumeRequested{Origin: OriginRemote}, now)
		case RemotePause:
			return Reduce(s, PauseRequested{Origin: OriginRemote}, now)
		case RemoteStop:
			return Reduce(s, StopRequested{Origin: OriginRemote}, now)
		}
		// Next и Previous без очереди воспроизведения ничего не делают.
		return s, Outcome{}
	}
	return s, Outcome{}
}

func play(s State, e PlayRequested, now time.Time) (State, Outcome) {
	if s.ActiveItemID == e.Item.ID {
		switch s.Status {
		case StatusLoading, StatusPlaying:
			return s, Outcome{}
		case StatusPaused:
			return Reduce(s, ResumeRequested{Origin: OriginUI}, now)
		}
	}

	var out Outcome
	switch s.Status {
	case StatusLoading, StatusPlaying, StatusPaused:
		out.Commands = append(out.Commands, Command{Op: OpStop, Handle: s.Handle()})
	}

	next := State{
		Status:       StatusLoading,
		ActiveItemID: e.Item.ID,
		MediaRef:     e.Item.MediaRef,
		StartedAt:    now,
		Generation:   s.Generation + 1,
	}
	out.Commands = append(out.Commands, Command{Op: OpLoad, Handle: next.Handle(), Item: e.Item})
	out.Started = true
	return next, out
}

func (s State) current(h Handle) bool {
	return s.Status != StatusIdle && h == s.Handle()
}

// Package store реализует центральное хранилище состояния рантайма.
//
// Store последовательно применяет события чистой функцией Reduce, публикует
// новый снимок подписчикам и только после этого выполняет побочные эффекты:
// вызовы провайдера аутентификации и медиасессии. Результаты эффектов
// возвращаются в стор обычными событиями.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/entitlement"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/gate"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/playback"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/reward"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/session"
)

// ErrUnknownEvent — стор не знает, как применить событие.
var ErrUnknownEvent = errors.New("unknown event")

// Snapshot — согласованное состояние всех компонентов. Экраны читают только его.
type Snapshot struct {
	Session     session.State     `json:"session"`
	Entitlement entitlement.State `json:"entitlement"`
	Rewards     reward.Ledger     `json:"rewards"`
	Playback    playback.State    `json:"playback"`
	Version     uint64            `json:"version"`
}

// Initial возвращает начальный снимок.
func Initial() Snapshot {
	return Snapshot{
		Session:     session.Initial(),
		Entitlement: entitlement.Initial(),
		Playback:    playback.Initial(),
	}
}

// Access вычисляет решение о доступе к уроку по этому снимку.
func (s Snapshot) Access(item models.ContentItem, now time.Time) gate.Decision {
	return gate.Gate(item, s.Entitlement, now)
}

// Policy — настраиваемые правила переходов.
type Policy struct {
	// ClearRewardsOnSignOut очищает журнал наград при выходе из аккаунта.
	ClearRewardsOnSignOut bool
}

// Effect — побочный эффект, который стор выполняет после перехода.
type Effect interface {
	effect()
}

// StartAuth — вызвать провайдера аутентификации.
type StartAuth struct{ Request session.Request }

// CancelAuth — отменить текущий вызов провайдера.
type CancelAuth struct{}

// Media — выполнить команду медиасессии.
type Media struct{ Command playback.Command }

// Emit — отправить событие в конец очереди стора.
type Emit struct{ Event models.Event }

// PlaybackStarted — начата новая сессия воспроизведения.
type PlaybackStarted struct{ ItemID string }

// PlaybackCompleted — урок дослушан до конца.
type PlaybackCompleted struct {
	ItemID string
	Earned bool
}

// PlaybackFailed — ошибка воспроизведения, которую видит пользователь.
type PlaybackFailed struct {
	ItemID string
	Err    error
}

func (StartAuth) effect()         {}
func (CancelAuth) effect()        {}
func (Media) effect()             {}
func (Emit) effect()              {}
func (PlaybackStarted) effect()   {}
func (PlaybackCompleted) effect() {}
func (PlaybackFailed) effect()    {}

// Reduce применяет событие к снимку и возвращает эффекты, которые нужно выполнить.
// Функция детерминирована: время передаётся аргументом now.
// Ошибка означает, что событие отклонено и снимок не изменился.
func Reduce(s Snapshot, ev models.Event, now time.Time, p Policy) (Snapshot, []Effect, error) {
	switch e := ev.(type) {
	case session.SignOutRequested:
		return signOut(s, e, now, p)

	case session.Event:
		next, out, err := session.Reduce(s.Session, e)
		if err != nil {
			return s, nil, err
		}
		s.Session = next
		var effects []Effect
		if out.Cancel {
			effects = append(effects, CancelAuth{})
		}
		if out.Start != nil {
			effects = append(effects, StartAuth{Request: *out.Start})
		}
		if out.FollowUp != nil {
			effects = append(effects, Emit{Event: out.FollowUp})
		}
		return s, effects, nil

	case entitlement.Event:
		s.Entitlement = entitlement.Reduce(s.Entitlement, e)
		return s, nil, nil

	case playback.PlayRequested:
		if d := gate.Gate(e.Item, s.Entitlement, now); d.IsLocked() {
			return s, nil, &gate.LockedError{ItemID: e.Item.ID, Reason: d.Reason}
		}
		next, effects := reducePlayback(s, e, now)
		return next, effects, nil

	case playback.Event:
		next, effects := reducePlayback(s, e, now)
		return next, effects, nil
	}
	return s, nil, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
}

func reducePlayback(s Snapshot, ev playback.Event, now time.Time) (Snapshot, []Effect) {
	prevItem := s.Playback.ActiveItemID
	next, out := playback.Reduce(s.Playback, ev, now)
	s.Playback = next

	effects := make([]Effect, 0, len(out.Commands)+2)
	for _, cmd := range out.Commands {
		effects = append(effects, Media{Command: cmd})
	}
	if out.Started {
		effects = append(effects, PlaybackStarted{ItemID: next.ActiveItemID})
	}
	if out.Completed != "" {
		var earned bool
		s.Rewards, earned = s.Rewards.Earn(out.Completed)
		effects = append(effects, PlaybackCompleted{ItemID: out.Completed, Earned: earned})
	}
	if out.Failure != nil {
		effects = append(effects, PlaybackFailed{ItemID: prevItem, Err: out.Failure})
	}
	if out.FollowUp != nil {
		effects = append(effects, Emit{Event: out.FollowUp})
	}
	return s, effects
}

func signOut(s Snapshot, ev session.SignOutRequested, now time.Time, p Policy) (Snapshot, []Effect, error) {
	next, out, err := session.Reduce(s.Session, ev)
	if err != nil {
		return s, nil, err
	}
	s.Session = next
	s.Entitlement = entitlement.Reduce(s.Entitlement, entitlement.Reset{})
	if p.ClearRewardsOnSignOut {
		s.Rewards = reward.Ledger{}
	}

	var effects []Effect
	if out.Cancel {
		effects = append(effects, CancelAuth{})
	}
	if s.Playback.Active() {
		var pe []Effect
		s, pe = reducePlayback(s, playback.StopRequested{Origin: playback.OriginSystem}, now)
		effects = append(effects, pe...)
	}
	return s, effects, nil
}

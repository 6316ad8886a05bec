package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/session"
)

// run выполняет эффект. Вызывается только из горутины стора и не блокируется:
// долгие операции уходят в отдельные горутины и возвращают результат через Post.
func (s *Store) run(eff Effect, log *slog.Logger) {
	switch e := eff.(type) {
	case StartAuth:
		s.startAuth(e.Request, log)

	case CancelAuth:
		if s.authCancel != nil {
			s.authCancel()
			s.authCancel = nil
			log.Info("authentication cancelled")
		}

	case Media:
		if s.media == nil {
			log.Warn("media command dropped: no media session", slog.String("op", e.Command.Op.String()))
			return
		}
		s.media.Execute(e.Command)

	case Emit:
		s.Post(e.Event)

	case PlaybackStarted:
		s.metrics.PlaybackStarted()
		log.Info("playback started", slog.String("item_id", e.ItemID))

	case PlaybackCompleted:
		log.Info("playback completed", slog.String("item_id", e.ItemID), slog.Bool("reward_earned", e.Earned))
		if e.Earned {
			s.metrics.RewardEarned()
		}

	case PlaybackFailed:
		s.metrics.PlaybackFailed()
		log.Error("playback failed", slog.String("item_id", e.ItemID), sl.Err(e.Err))
	}
}

func (s *Store) startAuth(req session.Request, log *slog.Logger) {
	if s.authCancel != nil {
		s.authCancel()
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.authTimeout)
	s.authCancel = cancel

	log.Info("authentication started", slog.Any("request", req))
	s.authWG.Add(1)
	go func() {
		defer s.authWG.Done()
		defer cancel()

		start := time.Now()
		user, err := session.Call(ctx, s.auth, req)
		if err != nil && errors.Is(ctx.Err(), context.Canceled) {
			err = session.ErrAuthCancelled
		}
		s.metrics.AuthFinished(string(req.Method), err, time.Since(start))
		if err != nil {
			s.Post(session.AuthFailed{Generation: req.Generation, Err: err})
			return
		}
		s.Post(session.AuthSucceeded{Generation: req.Generation, User: user})
	}()
}

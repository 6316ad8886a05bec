// Package remote принимает команды удалённого управления (наушники, экран
// блокировки) и передаёт их рантайму так, как их доставила бы ОС.
package remote

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lesson-runtime/internal/http/response"
	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/playback"
)

type Service interface {
	Remote(cmd playback.RemoteCommand) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP обрабатывает POST /remote/{command}. Команда применяется
// асинхронно, поэтому ответ 202.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.remote"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cmd, err := playback.ParseRemoteCommand(chi.URLParam(r, "command"))
	if err != nil {
		log.Warn("unknown remote command", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	if err := h.service.Remote(cmd); err != nil {
		log.Error("remote command rejected", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("remote command emitted", slog.String("command", cmd.String()))
	w.WriteHeader(http.StatusAccepted)
	render.JSON(w, r, response.OKWithData(map[string]any{"command": cmd.String()}))
}

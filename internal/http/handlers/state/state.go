// Package state отдаёт текущий снимок рантайма.
package state

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lesson-runtime/internal/http/response"
	"github.com/magabrotheeeer/lesson-runtime/internal/store"
)

// Service возвращает снимок состояния.
type Service interface {
	Snapshot() store.Snapshot
}

// Handler обрабатывает GET /state.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.state"

	snap := h.service.Snapshot()
	h.log.Debug("snapshot served",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Uint64("version", snap.Version),
	)
	render.JSON(w, r, response.OKWithData(snap))
}

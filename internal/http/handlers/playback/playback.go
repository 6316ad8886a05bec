// Package playback реализует HTTP-обработчики управления воспроизведением.
//
// Запуск закрытого урока не считается ошибкой рантайма: сервис возвращает
// решение Locked, а обработчик отвечает 402 с признаком upsell, чтобы клиент
// показал экран оформления подписки.
package playback

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lesson-runtime/internal/http/response"
	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/gate"
)

// PlayRequest — тело запроса запуска урока.
type PlayRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

// Handler обрабатывает запросы воспроизведения.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Play обрабатывает POST /playback/play.
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.playback.Play"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	decision, err := h.service.Play(r.Context(), req.ItemID)
	if err != nil {
		log.Error("play request failed", sl.Err(err), slog.String("item_id", req.ItemID))
		response.WriteError(w, r, err)
		return
	}
	if decision.IsLocked() {
		log.Info("content locked", slog.String("item_id", req.ItemID), slog.String("reason", string(decision.Reason)))
		response.WriteError(w, r, &gate.LockedError{ItemID: req.ItemID, Reason: decision.Reason})
		return
	}

	log.Info("playback requested", slog.String("item_id", req.ItemID))
	w.WriteHeader(http.StatusAccepted)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"item_id": req.ItemID,
		"access":  decision,
	}))
}

// Pause обрабатывает POST /playback/pause.
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, "handlers.playback.Pause", h.service.Pause)
}

// Resume обрабатывает POST /playback/resume.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, "handlers.playback.Resume", h.service.Resume)
}

// Stop обрабатывает POST /playback/stop.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, "handlers.playback.Stop", h.service.Stop)
}

func (h *Handler) control(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context) error) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	if err := fn(r.Context()); err != nil {
		log.Error("playback command failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	log.Debug("playback command dispatched")
	render.JSON(w, r, response.OK())
}

// Package billing реализует HTTP-обработчики, через которые магазин
// приложений сообщает о покупке и отмене подписки.
//
// Обработчики только публикуют сообщение в шину биллинга. Состояние подписки
// меняется, когда сообщение дойдёт до наблюдателя, поэтому ответ 202.
package billing

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lesson-runtime/internal/http/response"
	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/entitlement"
)

// ConfirmRequest — тело запроса подтверждения подписки.
// Без expires_at срок считается от текущего момента по тарифу.
type ConfirmRequest struct {
	Plan      string     `json:"plan" validate:"required,oneof=monthly yearly"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Confirm обрабатывает POST /billing/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.Confirm"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req ConfirmRequest
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

	plan, err := entitlement.ParsePlan(req.Plan)
	if err != nil {
		log.Error("failed to parse plan", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	if err := h.service.ConfirmSubscription(r.Context(), plan, req.ExpiresAt); err != nil {
		log.Error("failed to publish confirmation", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("subscription confirmation accepted", slog.String("plan", string(plan)))
	w.WriteHeader(http.StatusAccepted)
	render.JSON(w, r, response.OK())
}

// Cancel обрабатывает POST /billing/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.Cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.CancelSubscription(r.Context()); err != nil {
		log.Error("failed to publish cancellation", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("subscription cancellation accepted")
	w.WriteHeader(http.StatusAccepted)
	render.JSON(w, r, response.OK())
}

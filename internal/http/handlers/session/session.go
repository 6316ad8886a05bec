// Package session реализует HTTP-обработчики входа, регистрации, гостевого
// режима и выхода из аккаунта.
//
// Проверку полей выполняет сам рантайм: пустые поля возвращаются как ошибка
// валидации с кодом 422, а ответ провайдера сопоставляется с кодом HTTP
// через response.FromError.
package session

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lesson-runtime/internal/http/response"
	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
	"github.com/magabrotheeeer/lesson-runtime/internal/models"
)

// SignUpRequest — тело запроса регистрации.
type SignUpRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// SignInRequest — тело запроса входа по email.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Handler обрабатывает запросы сессии.
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

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// SignUp обрабатывает POST /session/sign-up.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.SignUp"
	log := h.logger(r, op)

	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	user, err := h.service.SignUp(r.Context(), req.DisplayName, req.Email, req.Password)
	h.respondUser(w, r, log, user, err)
}

// SignIn обрабатывает POST /session/sign-in.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.SignIn"
	log := h.logger(r, op)

	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	user, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	h.respondUser(w, r, log, user, err)
}

// Google обрабатывает POST /session/google.
func (h *Handler) Google(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.Google"

	user, err := h.service.SignInWithGoogle(r.Context())
	h.respondUser(w, r, h.logger(r, op), user, err)
}

// Guest обрабатывает POST /session/guest.
func (h *Handler) Guest(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.Guest"
	log := h.logger(r, op)

	if err := h.service.ContinueAsGuest(r.Context()); err != nil {
		log.Warn("guest mode rejected", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	log.Info("continuing as guest")
	render.JSON(w, r, response.OK())
}

// SignOut обрабатывает POST /session/sign-out.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.SignOut"
	log := h.logger(r, op)

	if err := h.service.SignOut(r.Context()); err != nil {
		log.Error("sign out failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	log.Info("signed out")
	render.JSON(w, r, response.OK())
}

func (h *Handler) respondUser(w http.ResponseWriter, r *http.Request, log *slog.Logger, user models.UserIdentity, err error) {
	if err != nil {
		status := response.WriteError(w, r, err)
		log.Warn("authentication failed", sl.Err(err), slog.Int("status", status))
		return
	}
	log.Info("authenticated", slog.String("user_id", user.ID))
	render.JSON(w, r, response.OKWithData(user))
}

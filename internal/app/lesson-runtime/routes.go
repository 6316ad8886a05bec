package lessonruntime

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/lesson-runtime/internal/http/handlers/billing"
	"github.com/magabrotheeeer/lesson-runtime/internal/http/handlers/catalog"
	"github.com/magabrotheeeer/lesson-runtime/internal/http/handlers/health"
	"github.com/magabrotheeeer/lesson-runtime/internal/http/handlers/playback"
	"github.com/magabrotheeeer/lesson-runtime/internal/http/handlers/remote"
	"github.com/magabrotheeeer/lesson-runtime/internal/http/handlers/session"
	"github.com/magabrotheeeer/lesson-runtime/internal/http/handlers/state"
	"github.com/magabrotheeeer/lesson-runtime/internal/http/middlewarectx"
)

// RegisterRoutes регистрирует маршруты панели управления рантаймом.
func RegisterRoutes(r chi.Router, logger *slog.Logger, rt *Runtime, status middlewarectx.StatusRecorder, metricsHandler http.Handler, limiter *rate.Limiter) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.StatusMiddleware(status),
	)

	r.Get("/healthz", health.New(logger).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))

		r.Get("/state", state.New(logger, rt).ServeHTTP)
		r.Get("/catalog", catalog.New(logger, rt).ServeHTTP)

		sessionHandler := session.New(logger, rt)
		r.Route("/session", func(r chi.Router) {
			r.Post("/sign-up", sessionHandler.SignUp)
			r.Post("/sign-in", sessionHandler.SignIn)
			r.Post("/google", sessionHandler.Google)
			r.Post("/guest", sessionHandler.Guest)
			r.Post("/sign-out", sessionHandler.SignOut)
		})

		playbackHandler := playback.New(logger, rt)
		r.Route("/playback", func(r chi.Router) {
			r.Post("/play", playbackHandler.Play)
			r.Post("/pause", playbackHandler.Pause)
			r.Post("/resume", playbackHandler.Resume)
			r.Post("/stop", playbackHandler.Stop)
		})

		r.Post("/remote/{command}", remote.New(logger, rt).ServeHTTP)

		billingHandler := billing.New(logger, rt)
		r.Route("/billing", func(r chi.Router) {
			r.Post("/confirm", billingHandler.Confirm)
			r.Post("/cancel", billingHandler.Cancel)
		})
	})

	r.Handle("/metrics", metricsHandler)
}

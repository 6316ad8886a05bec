package lessonruntime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/lesson-runtime/internal/billing"
	"github.com/magabrotheeeer/lesson-runtime/internal/cache"
	"github.com/magabrotheeeer/lesson-runtime/internal/config"
	"github.com/magabrotheeeer/lesson-runtime/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lesson-runtime/internal/lib/jwt"
	"github.com/magabrotheeeer/lesson-runtime/internal/lib/password"
	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
	"github.com/magabrotheeeer/lesson-runtime/internal/media"
	"github.com/magabrotheeeer/lesson-runtime/internal/metrics"
	"github.com/magabrotheeeer/lesson-runtime/internal/rabbitmq"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/catalog"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/identity"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/playback"
	"github.com/magabrotheeeer/lesson-runtime/internal/store"
)

// App собирает рантайм целиком: стор, контроллер воспроизведения, провайдер
// аутентификации, наблюдатель биллинга, зеркало снимков и панель управления.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	runtime    *Runtime
	store      *store.Store
	controller *playback.Controller
	media      *media.Session
	observer   *billing.Observer

	cache       *cache.Cache
	mirror      *cache.Mirror
	unsubscribe func()

	amqpConn *amqp.Connection
	amqpCh   *amqp.Channel
	queue    string
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "lessonruntime.New"

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	provider := identity.NewDirectory(password.NewHasher(cfg.Session.PasswordCost), logger, identityOptions(cfg)...)

	mediaSession := media.NewSession(logger,
		media.WithLoadDelay(cfg.Playback.LoadDelay),
		media.WithSpeed(cfg.Playback.Speed),
		media.WithUnavailable(cfg.Playback.Unavailable...),
	)
	remoteBus := media.NewRemoteBus()
	controller := playback.NewController(mediaSession, remoteBus, logger)

	st := store.New(provider, logger,
		store.WithPolicy(store.Policy{ClearRewardsOnSignOut: cfg.Session.ClearRewardsOnSignOut}),
		store.WithAuthTimeout(cfg.Session.AuthTimeout),
		store.WithMetrics(collector),
		store.WithMedia(controller),
	)

	a := &App{
		logger:     logger,
		store:      st,
		controller: controller,
		media:      mediaSession,
		observer:   billing.NewObserver(st, logger),
		queue:      cfg.Billing.Queue,
	}

	if err := controller.Start(st); err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var publisher billing.Publisher = billing.NewLoopback(a.observer)
	if cfg.Billing.AMQPURL != "" {
		conn, err := rabbitmq.Connect(cfg.Billing.AMQPURL, cfg.Billing.Retries, cfg.Billing.RetryDelay)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.amqpConn = conn

		ch, err := rabbitmq.SetupChannel(conn, cfg.Billing.Exchange, rabbitmq.BillingQueues(cfg.Billing.Queue, cfg.Billing.RoutingKey))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.amqpCh = ch
		publisher = rabbitmq.NewPublisher(ch, cfg.Billing.Exchange, cfg.Billing.RoutingKey)
		logger.Info("billing consumer configured", slog.String("queue", cfg.Billing.Queue))
	}

	if cfg.RedisConnection.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.cache = c
		a.mirror = cache.NewMirror(c, cfg.RedisConnection.SnapshotKey, cfg.RedisConnection.SnapshotTTL, logger)
		a.unsubscribe = st.Subscribe(a.mirror.Publish)
	}

	a.runtime = NewRuntime(st, controller, catalog.New(cfg.Catalog), remoteBus, publisher, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, a.runtime, collector, metrics.Handler(registry),
		middlewarectx.NewLimiter(cfg.HTTPServer.RateLimit, cfg.HTTPServer.RateBurst))

	// Вход ждёт ответа провайдера, поэтому запись ответа может занять до AuthTimeout.
	a.server = &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP + cfg.Session.AuthTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return a, nil
}

func identityOptions(cfg *config.Config) []identity.Option {
	opts := []identity.Option{identity.WithLatency(cfg.Session.ProviderLatency)}
	if cfg.Google.SigningKey == "" {
		return opts
	}
	maker := jwt.NewJWTMaker(cfg.Google.SigningKey, cfg.Google.Issuer, cfg.Google.TokenTTL)
	account := identity.DevGoogleAccount{
		Subject: cfg.Google.Subject,
		Name:    cfg.Google.Name,
		Email:   cfg.Google.Email,
	}
	return append(opts, identity.WithGoogle(identity.NewStaticTokenSource(maker, account), maker))
}

// Runtime возвращает API рантайма.
func (a *App) Runtime() *Runtime { return a.runtime }

// Run запускает потребителя биллинга, зеркало снимков и HTTP-сервер и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if a.amqpCh != nil {
		if err := rabbitmq.ConsumerMessage(ctx, a.amqpCh, a.queue, a.observer.Handle, a.logger); err != nil {
			a.close()
			return err
		}
	}

	mirrorCtx, stopMirror := context.WithCancel(context.Background())
	mirrorDone := make(chan struct{})
	if a.mirror != nil {
		go func() {
			defer close(mirrorDone)
			a.mirror.Run(mirrorCtx)
		}()
	} else {
		close(mirrorDone)
	}
	defer func() {
		stopMirror()
		<-mirrorDone
		a.closeBackends()
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeRuntime()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeRuntime()
		return err
	}
}

// closeRuntime останавливает обработку событий. Зеркало после этого
// ещё успевает записать последний снимок.
func (a *App) closeRuntime() {
	a.controller.Close()
	a.store.Close()
	a.media.Close()
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a *App) closeBackends() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis client", sl.Err(err))
		}
	}
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Error("failed to close amqp channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Error("failed to close amqp connection", sl.Err(err))
		}
	}
}

func (a *App) close() {
	a.closeRuntime()
	a.closeBackends()
}

// Package metrics собирает метрики рантайма и отдаёт их в формате Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/lesson-runtime/internal/services/session"
)

// MetricsCollector — интерфейс сбора метрик, которым пользуются стор и HTTP-слой.
type MetricsCollector interface {
	EventApplied(name string, d time.Duration)
	EventRejected(name string, reason string)
	AuthFinished(method string, err error, d time.Duration)
	PlaybackStarted()
	PlaybackFailed()
	RewardEarned()
	RecordHTTPStatus(route string, status int)
}

// Collector — реализация на Prometheus.
type Collector struct {
	eventsApplied  *prometheus.CounterVec
	eventsRejected *prometheus.CounterVec
	eventLatency   prometheus.Histogram
	authResults    *prometheus.CounterVec
	authLatency    *prometheus.HistogramVec
	playbackStart  prometheus.Counter
	playbackFail   prometheus.Counter
	rewardsEarned  prometheus.Counter
	httpStatus     *prometheus.CounterVec
}

// NewCollector создаёт Collector и регистрирует метрики в reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		eventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lesson_runtime_events_applied_total",
			Help: "Применённые события стора",
		}, []string{"event"}),
		eventsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lesson_runtime_events_rejected_total",
			Help: "Отклонённые события стора",
		}, []string{"event", "reason"}),
		eventLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lesson_runtime_event_apply_seconds",
			Help:    "Время применения события вместе с уведомлением подписчиков",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		authResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lesson_runtime_auth_total",
			Help: "Вызовы провайдера аутентификации по способу входа и результату",
		}, []string{"method", "result"}),
		authLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lesson_runtime_auth_latency_seconds",
			Help:    "Длительность вызова провайдера аутентификации",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		playbackStart: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lesson_runtime_playback_started_total",
			Help: "Начатые сессии воспроизведения",
		}),
		playbackFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lesson_runtime_playback_failed_total",
			Help: "Сессии воспроизведения, завершившиеся видимой ошибкой",
		}),
		rewardsEarned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lesson_runtime_rewards_earned_total",
			Help: "Впервые заработанные награды",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lesson_runtime_http_responses_total",
			Help: "Ответы панели управления по маршруту и коду",
		}, []string{"route", "status_code"}),
	}

	reg.MustRegister(
		c.eventsApplied,
		c.eventsRejected,
		c.eventLatency,
		c.authResults,
		c.authLatency,
		c.playbackStart,
		c.playbackFail,
		c.rewardsEarned,
		c.httpStatus,
	)

	return c
}

// EventApplied записывает применённое событие.
func (c *Collector) EventApplied(name string, d time.Duration) {
	c.eventsApplied.WithLabelValues(name).Inc()
	c.eventLatency.Observe(d.Seconds())
}

// EventRejected записывает отклонённое событие.
func (c *Collector) EventRejected(name string, reason string) {
	c.eventsRejected.WithLabelValues(name, reason).Inc()
}

// AuthFinished записывает результат вызова провайдера.
func (c *Collector) AuthFinished(method string, err error, d time.Duration) {
	c.authResults.WithLabelValues(method, authResult(err)).Inc()
	c.authLatency.WithLabelValues(method).Observe(d.Seconds())
}

func authResult(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, session.ErrAuthCancelled) {
		return "cancelled"
	}
	return session.AsAuthError(err).Kind.String()
}

func (c *Collector) PlaybackStarted() { c.playbackStart.Inc() }

func (c *Collector) PlaybackFailed() { c.playbackFail.Inc() }

func (c *Collector) RewardEarned() { c.rewardsEarned.Inc() }

// RecordHTTPStatus записывает код ответа панели управления.
func (c *Collector) RecordHTTPStatus(route string, status int) {
	c.httpStatus.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler возвращает обработчик для /metrics.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

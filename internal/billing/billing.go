// Package billing переводит сообщения сервиса подписок в события права доступа.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
	"github.com/magabrotheeeer/lesson-runtime/internal/models"
	"github.com/magabrotheeeer/lesson-runtime/internal/rabbitmq"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/entitlement"
)

// Типы сообщений.
const (
	TypeConfirmed = "subscription_confirmed"
	TypeCancelled = "subscription_cancelled"
)

// ErrMalformed — сообщение нельзя разобрать. Повторная доставка не поможет.
var ErrMalformed = fmt.Errorf("billing: malformed message: %w", rabbitmq.ErrPermanent)

// Message — сообщение биллинга.
type Message struct {
	Type      string     `json:"type"`
	Plan      string     `json:"plan,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Confirmed собирает сообщение о подтверждённой подписке.
func Confirmed(plan entitlement.Plan, expiresAt *time.Time) Message {
	return Message{Type: TypeConfirmed, Plan: string(plan), ExpiresAt: expiresAt}
}

// Cancelled собирает сообщение об отменённой подписке.
func Cancelled() Message {
	return Message{Type: TypeCancelled}
}

// Decode разбирает тело сообщения в событие entitlement.
func Decode(body []byte) (entitlement.Event, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return msg.Event()
}

// Event переводит сообщение в событие entitlement.
func (m Message) Event() (entitlement.Event, error) {
	switch m.Type {
	case TypeConfirmed:
		plan, err := entitlement.ParsePlan(m.Plan)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return entitlement.SubscriptionConfirmed{Plan: plan, ExpiresAt: m.ExpiresAt}, nil
	case TypeCancelled:
		return entitlement.SubscriptionCancelled{}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, m.Type)
}

// Poster — часть стора, в которую наблюдатель отправляет события.
type Poster interface {
	Post(ev models.Event)
}

// Observer получает сообщения биллинга и отправляет события в стор.
type Observer struct {
	store Poster
	log   *slog.Logger
}

// NewObserver создаёт Observer.
func NewObserver(store Poster, log *slog.Logger) *Observer {
	return &Observer{
		store: store,
		log:   log.With(slog.String("component", "billing")),
	}
}

// Handle обрабатывает тело одного сообщения. Подходит как обработчик rabbitmq.ConsumerMessage.
func (o *Observer) Handle(body []byte) error {
	const op = "billing.Handle"

	ev, err := Decode(body)
	if err != nil {
		o.log.Error("failed to decode billing message", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	o.log.Info("billing event received", sl.Event(ev.Name()))
	o.store.Post(ev)
	return nil
}

// Publisher отправляет сообщения биллинга.
type Publisher interface {
	Publish(ctx context.Context, message any) error
}

// Loopback передаёт сообщения прямо в Observer, минуя брокер.
// Используется, когда брокер не настроен.
type Loopback struct {
	observer *Observer
}

// NewLoopback создаёт Loopback.
func NewLoopback(o *Observer) *Loopback {
	return &Loopback{observer: o}
}

// Publish реализует Publisher.
func (l *Loopback) Publish(ctx context.Context, message any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("billing.Loopback: %w", err)
	}
	return l.observer.Handle(body)
}

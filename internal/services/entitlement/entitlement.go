// Package entitlement хранит состояние подписки пользователя и выводит из него
// признаки активности. Состояние меняется только чистой функцией Reduce
// в ответ на события биллинга.
package entitlement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/lesson-runtime/internal/lib/month"
)

// Plan — тарифный план подписки.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

// ErrUnknownPlan возвращается ParsePlan для неизвестного названия тарифа.
var ErrUnknownPlan = errors.New("unknown plan")

// ParsePlan разбирает название тарифа без учёта регистра.
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(s))); p {
	case PlanFree, PlanMonthly, PlanYearly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, s)
	}
}

// State — текущее состояние подписки.
// ExpiresAt == nil означает бессрочную подписку.
type State struct {
	Plan      Plan       `json:"plan"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Initial возвращает начальное состояние: бесплатный тариф без даты окончания.
func Initial() State {
	return State{Plan: PlanFree}
}

// IsActive сообщает, даёт ли подписка доступ к премиум-контенту в момент now.
func (s State) IsActive(now time.Time) bool {
	if s.Plan == "" || s.Plan == PlanFree {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// IsPremium совпадает с IsActive: истёкший платный тариф премиумом не считается.
func (s State) IsPremium(now time.Time) bool {
	return s.IsActive(now)
}

// Event — событие, которое понимает Reduce.
type Event interface {
	Name() string
	entitlementEvent()
}

// SubscriptionConfirmed приходит от биллинга после успешной покупки или продления.
type SubscriptionConfirmed struct {
	Plan      Plan
	ExpiresAt *time.Time
}

// SubscriptionCancelled приходит от биллинга при отмене подписки.
type SubscriptionCancelled struct{}

// Reset возвращает состояние к начальному, используется при выходе из аккаунта.
type Reset struct{}

func (SubscriptionConfirmed) Name() string { return "entitlement.subscription_confirmed" }
func (SubscriptionCancelled) Name() string { return "entitlement.subscription_cancelled" }
func (Reset) Name() string                 { return "entitlement.reset" }

func (SubscriptionConfirmed) entitlementEvent() {}
func (SubscriptionCancelled) entitlementEvent() {}
func (Reset) entitlementEvent()                 {}

// Reduce применяет событие к состоянию. Побочных эффектов нет.
// SubscriptionConfirmed перезаписывает состояние целиком: последний записавший побеждает.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case SubscriptionConfirmed:
		next := State{Plan: e.Plan}
		if e.ExpiresAt != nil {
			t := *e.ExpiresAt
			next.ExpiresAt = &t
		}
		return next
	case SubscriptionCancelled, Reset:
		return Initial()
	default:
		return s
	}
}

// DefaultExpiry возвращает дату окончания оплаченного периода, начинающегося в from:
// месяц для Monthly, год для Yearly. Для Free возвращает nil.
func DefaultExpiry(plan Plan, from time.Time) *time.Time {
	var t time.Time
	switch plan {
	case PlanMonthly:
		t = month.Add(from, 1)
	case PlanYearly:
		t = month.Add(from, 12)
	default:
		return nil
	}
	return &t
}

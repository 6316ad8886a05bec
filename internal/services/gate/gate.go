// Package gate решает, доступен ли урок пользователю при текущей подписке.
package gate

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
	"github.com/magabrotheeeer/lesson-runtime/internal/services/entitlement"
)

// Reason — причина блокировки контента.
type Reason string

// ReasonSubscriptionRequired — для урока нужна активная подписка.
const ReasonSubscriptionRequired Reason = "subscription_required"

// Decision — результат проверки доступа. Нулевое значение означает «открыто».
type Decision struct {
	Reason Reason `json:"reason,omitempty"`
}

// Unlocked возвращает решение «доступ открыт».
func Unlocked() Decision { return Decision{} }

// Locked возвращает решение «доступ закрыт» с указанной причиной.
func Locked(reason Reason) Decision { return Decision{Reason: reason} }

// IsLocked сообщает, закрыт ли доступ.
func (d Decision) IsLocked() bool { return d.Reason != "" }

func (d Decision) String() string {
	if d.IsLocked() {
		return "locked(" + string(d.Reason) + ")"
	}
	return "unlocked"
}

// Gate открывает урок, если он бесплатный или подписка активна в момент now.
// Функция чистая: одинаковые аргументы дают одинаковый результат.
func Gate(item models.ContentItem, ent entitlement.State, now time.Time) Decision {
	if item.IsFreeTier || ent.IsActive(now) {
		return Unlocked()
	}
	return Locked(ReasonSubscriptionRequired)
}

// LockedError сообщает вызывающему коду, что воспроизведение отклонено проверкой доступа
// и пользователя нужно направить на экран оформления подписки.
type LockedError struct {
	ItemID string
	Reason Reason
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("content %s is locked: %s", e.ItemID, e.Reason)
}

// Decision возвращает решение, соответствующее ошибке.
func (e *LockedError) Decision() Decision { return Locked(e.Reason) }

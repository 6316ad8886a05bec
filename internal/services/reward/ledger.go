// Package reward ведёт учёт наград за завершённые уроки.
//
// Ledger — неизменяемое значение: Earn возвращает новую копию, поэтому
// снимки состояния, уже отданные подписчикам, не меняются задним числом.
package reward

import (
	"encoding/json"
	"sort"
)

// Ledger — множество идентификаторов уроков, за которые выдана награда.
// Нулевое значение готово к использованию.
type Ledger struct {
	earned map[string]struct{}
}

// NewLedger создаёт журнал с уже заработанными наградами.
func NewLedger(ids ...string) Ledger {
	var l Ledger
	for _, id := range ids {
		l, _ = l.Earn(id)
	}
	return l
}

// Earn добавляет урок в журнал. Второе значение сообщает, была ли награда новой.
// Повторный вызов с тем же id ничего не меняет.
func (l Ledger) Earn(itemID string) (Ledger, bool) {
	if l.IsEarned(itemID) {
		return l, false
	}
	next := make(map[string]struct{}, len(l.earned)+1)
	for id := range l.earned {
		next[id] = struct{}{}
	}
	next[itemID] = struct{}{}
	return Ledger{earned: next}, true
}

// IsEarned сообщает, выдана ли награда за урок.
func (l Ledger) IsEarned(itemID string) bool {
	_, ok := l.earned[itemID]
	return ok
}

// Len возвращает количество наград.
func (l Ledger) Len() int { return len(l.earned) }

// IDs возвращает отсортированный список уроков с наградой.
func (l Ledger) IDs() []string {
	ids := make([]string, 0, len(l.earned))
	for id := range l.earned {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (l Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.IDs())
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*l = NewLedger(ids...)
	return nil
}

// Package month считает даты окончания подписок, оплаченных на целое число месяцев.
package month

import (
	"time"
)

// Add прибавляет к t указанное число месяцев. Если в целевом месяце нет такого дня,
// берётся последний день месяца: 31 января + 1 месяц = 28 (29) февраля.
func Add(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// Remaining считает, сколько полных месяцев осталось до end начиная с now.
// Возвращает 0, если end уже наступил.
func Remaining(now, end time.Time) int {
	if !now.Before(end) {
		return 0
	}
	months := (end.Year()-now.Year())*12 + int(end.Month()) - int(now.Month())
	if Add(now, months).After(end) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Package sl содержит вспомогательные функции для логгера slog,
// чтобы поля ошибок и событий выглядели одинаково во всех компонентах.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Event возвращает slog.Attr с именем события стора.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

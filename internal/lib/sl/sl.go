// Package sl содержит вспомогательные функции для работы с логгером slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
// Для nil возвращается пустая строка, чтобы логирование не паниковало.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Op атрибут с именем операции.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}

// SubscriptionID атрибут с идентификатором подписки.
func SubscriptionID(id string) slog.Attr {
	return slog.String("subscription_id", id)
}

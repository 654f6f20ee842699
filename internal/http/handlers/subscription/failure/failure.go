// Package failure переводит ошибки сервиса подписок в HTTP-ответы.
package failure

import (
	"errors"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// Status возвращает HTTP-статус и сообщение для ошибки сервиса.
// Неизвестные ошибки становятся 500 с сообщением fallback.
func Status(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "subscription not found"
	case errors.Is(err, subscription.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, subscription.ErrAlreadyCancelled):
		return http.StatusConflict, subscription.ErrAlreadyCancelled.Error()
	case errors.Is(err, subscription.ErrInvalidInput):
		msg := err.Error()
		if i := strings.Index(msg, subscription.ErrInvalidInput.Error()); i >= 0 {
			msg = msg[i:]
		}
		return http.StatusBadRequest, msg
	default:
		return http.StatusInternalServerError, fallback
	}
}

// Write пишет ответ для ошибки сервиса.
func Write(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, msg := Status(err, fallback)
	response.Fail(w, r, status, msg)
}

// Package remove реализует HTTP-обработчик удаления пользователя администратором.
// Вместе с пользователем удаляются все его подписки.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	services "github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// Handler обрабатывает запросы на удаление пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	DeleteUser(ctx context.Context, caller models.Caller, id string) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить пользователя
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.CallerFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := chi.URLParam(r, "id")

	err := h.service.DeleteUser(r.Context(), caller, id)
	switch {
	case errors.Is(err, services.ErrForbidden):
		response.Fail(w, r, http.StatusForbidden, "forbidden")
		return
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(w, r, http.StatusNotFound, "user not found")
		return
	case err != nil:
		log.Error("failed to delete user", slog.String("user_id", id), sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not delete user")
		return
	}

	log.Info("user deleted", slog.String("user_id", id), slog.String("by", caller.UserID))
	render.JSON(w, r, response.OKWithData(map[string]string{"deletedUserId": id}))
}

// Package userlist реализует HTTP-обработчик списка подписок конкретного пользователя.
// Пользователь может получить только собственные подписки.
package userlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/failure"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/list"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler обрабатывает HTTP-запросы на список подписок пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	ListByUser(ctx context.Context, caller models.Caller, userID string, f models.ListFilter) (*models.Page, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подписки пользователя
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} models.Page
// @Failure 403 {object} response.ErrorResponse "Чужие подписки"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions/user/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.userlist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.CallerFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID := chi.URLParam(r, "id")

	f, err := list.ParseFilter(r)
	if err != nil {
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.ListByUser(r.Context(), caller, userID, f)
	if err != nil {
		log.Error("failed to list user subscriptions", slog.String("user_id", userID), sl.Err(err))
		failure.Write(w, r, err, "could not list subscriptions")
		return
	}

	render.JSON(w, r, response.OKWithData(page))
}

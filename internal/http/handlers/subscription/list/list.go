// Package list реализует HTTP-обработчик для получения списка подписок с пагинацией
// и фильтрами по статусу и категории. Администратор получает все подписки,
// остальные пользователи только свои.
package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/failure"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Handler обрабатывает HTTP-запросы на получение списка подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики для получения списка подписок.
type Service interface {
	List(ctx context.Context, caller models.Caller, f models.ListFilter) (*models.Page, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ParseFilter читает page, limit, status и category из query-параметров.
func ParseFilter(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	f := models.ListFilter{
		Status:   q.Get("status"),
		Category: q.Get("category"),
	}
	var err error
	if v := q.Get("page"); v != "" {
		if f.Page, err = strconv.Atoi(v); err != nil || f.Page < 1 {
			return f, errors.New("page must be a positive integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 1 {
			return f, errors.New("limit must be a positive integer")
		}
	}
	return f, nil
}

// ServeHTTP godoc
// @Summary Список подписок
// @Tags Subscriptions
// @Produce  json
// @Security BearerAuth
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы, не больше 100" default(10)
// @Param status query string false "Фильтр по статусу"
// @Param category query string false "Фильтр по категории"
// @Success 200 {object} models.Page
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.CallerFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	f, err := ParseFilter(r)
	if err != nil {
		log.Error("invalid query parameters", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.List(r.Context(), caller, f)
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		failure.Write(w, r, err, "could not list subscriptions")
		return
	}

	log.Info("subscriptions listed", slog.Int("count", len(page.Items)), slog.Int("total", page.Total))
	render.JSON(w, r, response.OKWithData(page))
}

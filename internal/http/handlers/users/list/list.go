// Package list реализует HTTP-обработчик списка пользователей для администратора.
package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	services "github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Handler обрабатывает запросы списка пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	ListUsers(ctx context.Context, caller models.Caller, limit, offset int) ([]*models.User, int, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы" default(10)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Только для администратора"
// @Router /users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	caller, ok := middlewarectx.CallerFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, limit := 1, defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxLimit)
	}

	users, total, err := h.service.ListUsers(r.Context(), caller, limit, (page-1)*limit)
	if errors.Is(err, services.ErrForbidden) {
		response.Fail(w, r, http.StatusForbidden, "forbidden")
		return
	}
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not list users")
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	}))
}

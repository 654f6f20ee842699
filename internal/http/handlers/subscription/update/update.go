// Package update реализует HTTP-обработчик частичного изменения подписки.
//
// Передаются только изменяемые поля. Если меняется дата продления, период
// или подписка снова становится активной, workflow напоминаний запускается заново.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/failure"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
)

// Handler обрабатывает HTTP-запросы на изменение подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики изменения подписки.
type Service interface {
	Update(ctx context.Context, caller models.Caller, id string, patch models.SubscriptionPatch) (*subscription.Saved, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить подписку
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID подписки"
// @Param request body models.SubscriptionPatch true "Изменяемые поля"
// @Success 200 {object} subscription.Saved
// @Failure 400 {object} response.ErrorResponse "Некорректные данные"
// @Failure 403 {object} response.ErrorResponse "Чужая подписка"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.update"
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

	var patch models.SubscriptionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	saved, err := h.service.Update(r.Context(), caller, id, patch)
	if errors.Is(err, subscription.ErrTriggerFailed) && saved != nil {
		log.Error("subscription updated without reminder workflow", sl.SubscriptionID(id), sl.Err(err))
		render.JSON(w, r, response.OKWithData(map[string]any{
			"subscription":  saved.Subscription,
			"workflowRunId": "",
			"warning":       subscription.ErrTriggerFailed.Error(),
		}))
		return
	}
	if err != nil {
		log.Error("failed to update subscription", sl.SubscriptionID(id), sl.Err(err))
		failure.Write(w, r, err, "could not update subscription")
		return
	}

	log.Info("subscription updated", sl.SubscriptionID(id), slog.String("run_id", saved.WorkflowRunID))
	render.JSON(w, r, response.OKWithData(saved))
}

// Package trigger реализует служебный HTTP-обработчик ручного запуска
// workflow напоминаний для подписки. Доступен только администратору.
package trigger

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/response"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Request тело запроса.
type Request struct {
	SubscriptionID string `json:"subscriptionId" validate:"required,uuid"`
}

// Handler обрабатывает запуск workflow.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает точку входа для запуска workflow.
type Service interface {
	OnSubscriptionCreatedOrUpdated(ctx context.Context, subscriptionID string) (string, error)
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
// @Summary Запустить workflow напоминаний
// @Description Запускает новый workflow для подписки. Работающий workflow этой подписки заменяется.
// @Tags Workflows
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "ID подписки"
// @Success 202 {object} response.Response
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Workflow не запущен"
// @Router /workflows/subscriptions/reminder [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.workflow.trigger"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	runID, err := h.service.OnSubscriptionCreatedOrUpdated(r.Context(), req.SubscriptionID)
	if err != nil {
		log.Error("failed to trigger reminder workflow", sl.SubscriptionID(req.SubscriptionID), sl.Err(err))
		response.Fail(w, r, http.StatusBadGateway, "reminder workflow was not started")
		return
	}

	w.WriteHeader(http.StatusAccepted)
	render.JSON(w, r, response.OKWithData(map[string]string{"runId": runID}))
}

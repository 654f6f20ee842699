// Package cancel реализует служебный HTTP-обработчик, который сообщает,
// какой запуск workflow напоминаний нужно считать отменённым.
// Сам запуск не прерывается.
package cancel

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
	"github.com/magabrotheeeer/subscription-tracker/internal/services/trigger"
)

// Request тело запроса.
type Request struct {
	SubscriptionID string `json:"subscriptionId" validate:"required,uuid"`
}

// Handler обрабатывает запрос отмены.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает точку входа отмены.
type Service interface {
	OnSubscriptionCancelled(ctx context.Context, subscriptionID string) (*trigger.CancelNotice, error)
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
// @Summary Отменить workflow напоминаний
// @Description Возвращает сведения о текущем запуске. Запуск завершится сам при следующем пробуждении.
// @Tags Workflows
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "ID подписки"
// @Success 200 {object} trigger.CancelNotice
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка движка workflow"
// @Router /workflows/subscriptions/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.workflow.cancel"
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

	notice, err := h.service.OnSubscriptionCancelled(r.Context(), req.SubscriptionID)
	if err != nil {
		log.Error("failed to describe reminder workflow", sl.SubscriptionID(req.SubscriptionID), sl.Err(err))
		response.Fail(w, r, http.StatusBadGateway, "could not describe reminder workflow")
		return
	}

	render.JSON(w, r, response.OKWithData(notice))
}

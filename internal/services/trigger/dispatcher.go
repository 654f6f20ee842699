// Package trigger запускает workflow напоминаний при создании и изменении подписок.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/reminder"
)

// ErrStartFailed workflow не удалось запустить.
var ErrStartFailed = errors.New("failed to start reminder workflow")

// CancelNotice сведения о запуске, который стоит считать отменённым.
type CancelNotice struct {
	SubscriptionID string `json:"subscriptionId"`
	WorkflowID     string `json:"workflowId"`
	RunID          string `json:"runId,omitempty"`
	Running        bool   `json:"running"`
	Status         string `json:"status"`
	Message        string `json:"message"`
}

// Dispatcher точка входа для запуска workflow напоминаний.
type Dispatcher struct {
	log       *slog.Logger
	client    client.Client
	taskQueue string
	metrics   metrics.ReminderMetrics
}

// New создаёт Dispatcher.
func New(log *slog.Logger, c client.Client, taskQueue string, m metrics.ReminderMetrics) *Dispatcher {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Dispatcher{log: log, client: c, taskQueue: taskQueue, metrics: m}
}

// WorkflowID идентификатор workflow для подписки. Один на подписку.
func WorkflowID(subscriptionID string) string {
	return "subscription-reminder-" + subscriptionID
}

// OnSubscriptionCreatedOrUpdated запускает новый workflow и возвращает его run id.
// Уже работающий workflow этой подписки завершается и заменяется новым.
// Ошибка запуска возвращается сразу, ошибки внутри workflow сюда не доходят.
func (d *Dispatcher) OnSubscriptionCreatedOrUpdated(ctx context.Context, subscriptionID string) (string, error) {
	const op = "trigger.OnSubscriptionCreatedOrUpdated"
	log := d.log.With(sl.Op(op), sl.SubscriptionID(subscriptionID))

	opts := client.StartWorkflowOptions{
		ID:                       WorkflowID(subscriptionID),
		TaskQueue:                d.taskQueue,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_TERMINATE_EXISTING,
	}
	run, err := d.client.ExecuteWorkflow(ctx, opts, reminder.WorkflowName, reminder.Input{SubscriptionID: subscriptionID})
	if err != nil {
		d.metrics.IncWorkflowStartFailed("trigger")
		log.Error("failed to start reminder workflow", sl.Err(err))
		return "", fmt.Errorf("%s: %w: %w", op, ErrStartFailed, err)
	}
	d.metrics.IncWorkflowStarted("trigger")
	log.Info("reminder workflow started", slog.String("workflow_id", run.GetID()), slog.String("run_id", run.GetRunID()))
	return run.GetRunID(), nil
}

// OnSubscriptionCancelled ничего не прерывает. Описывает текущий запуск и пишет
// предупреждение оператору. Работающий workflow остановится сам при следующем
// пробуждении, когда увидит, что подписка больше не активна.
func (d *Dispatcher) OnSubscriptionCancelled(ctx context.Context, subscriptionID string) (*CancelNotice, error) {
	const op = "trigger.OnSubscriptionCancelled"
	log := d.log.With(sl.Op(op), sl.SubscriptionID(subscriptionID))

	notice := &CancelNotice{
		SubscriptionID: subscriptionID,
		WorkflowID:     WorkflowID(subscriptionID),
	}

	resp, err := d.client.DescribeWorkflowExecution(ctx, notice.WorkflowID, "")
	var notFound *serviceerror.NotFound
	switch {
	case errors.As(err, &notFound):
		notice.Status = "NOT_STARTED"
		notice.Message = "no reminder workflow exists for this subscription"
		log.Info(notice.Message)
		return notice, nil
	case err != nil:
		log.Error("failed to describe reminder workflow", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	info := resp.GetWorkflowExecutionInfo()
	notice.RunID = info.GetExecution().GetRunId()
	notice.Running = info.GetStatus() == enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING
	notice.Status = info.GetStatus().String()
	if notice.Running {
		notice.Message = "reminder workflow is running and should be considered cancelled; it stops on its next wake-up"
		log.Warn(notice.Message, slog.String("run_id", notice.RunID))
	} else {
		notice.Message = "reminder workflow is not running"
		log.Info(notice.Message, slog.String("run_id", notice.RunID), slog.String("status", notice.Status))
	}
	return notice, nil
}

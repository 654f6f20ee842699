package reminder

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/datetime"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// WorkflowName имя, под которым workflow регистрируется в воркере.
const WorkflowName = "SubscriptionReminder"

// Workflow процесс напоминаний о продлении одной подписки.
type Workflow struct {
	calc *Calculator
}

// NewWorkflow создаёт workflow с заданным калькулятором расписания.
// Список сроков должен совпадать на всех воркерах одной очереди, иначе replay разойдётся.
func NewWorkflow(calc *Calculator) *Workflow {
	return &Workflow{calc: calc}
}

func storeOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	}
}

func sendOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
}

// SubscriptionReminder загружает подписку, проверяет статус и срок продления,
// затем по каждому сроку либо ждёт его наступления, либо отправляет напоминание, либо пропускает.
// После каждого ожидания подписка перечитывается: отменённая или удалённая подписка
// завершает процесс без отправки.
func (w *Workflow) SubscriptionReminder(ctx workflow.Context, in Input) (*Result, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Reminder workflow started", "subscription_id", in.SubscriptionID)

	storeCtx := workflow.WithActivityOptions(ctx, storeOptions())
	sendCtx := workflow.WithActivityOptions(ctx, sendOptions())

	var a *Activities
	res := &Result{}

	snap, err := w.load(storeCtx, a, in.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		logger.Warn("Subscription not found", "subscription_id", in.SubscriptionID)
		res.Outcome = OutcomeNotFound
		return res, nil
	}
	if snap.Status != models.StatusActive {
		logger.Info("Subscription is not active, no reminders scheduled", "status", snap.Status)
		res.Outcome, res.Status = OutcomeInactive, snap.Status
		return res, nil
	}

	now := workflow.Now(ctx)
	if !snap.RenewalDate.After(now) {
		logger.Info("Renewal date has passed, marking subscription expired", "renewal_date", snap.RenewalDate)
		if err := workflow.ExecuteActivity(storeCtx, a.MarkExpired, in.SubscriptionID).Get(ctx, nil); err != nil {
			logger.Error("MarkExpired activity failed", "Error", err)
			return nil, err
		}
		res.Outcome, res.Status = OutcomeExpired, models.StatusExpired
		return res, nil
	}

	for _, r := range w.calc.Schedule(snap.RenewalDate) {
		now = workflow.Now(ctx)
		switch {
		case r.At.After(now):
			logger.Info("Sleeping until reminder", "lead_days", r.LeadDays, "at", r.At)
			if err := workflow.Sleep(ctx, r.At.Sub(now)); err != nil {
				return nil, err
			}
			snap, err = w.load(storeCtx, a, in.SubscriptionID)
			if err != nil {
				return nil, err
			}
			if snap == nil {
				logger.Warn("Subscription removed while waiting", "subscription_id", in.SubscriptionID)
				res.Outcome = OutcomeNotFound
				return res, nil
			}
			if snap.Status != models.StatusActive {
				logger.Info("Subscription is no longer active, stopping reminders", "status", snap.Status)
				res.Outcome, res.Status = OutcomeInactive, snap.Status
				return res, nil
			}
			w.fire(sendCtx, a, r.LeadDays, snap, res)
		case datetime.SameDay(r.At, now):
			w.fire(sendCtx, a, r.LeadDays, snap, res)
		default:
			logger.Info("Reminder window has passed, skipping", "lead_days", r.LeadDays)
			res.Skipped++
		}
	}

	res.Outcome = OutcomeCompleted
	logger.Info("Reminder workflow completed", "sent", res.Sent, "failed", res.Failed, "skipped", res.Skipped)
	return res, nil
}

func (w *Workflow) load(ctx workflow.Context, a *Activities, id string) (*models.SubscriptionSnapshot, error) {
	var lr LoadResult
	if err := workflow.ExecuteActivity(ctx, a.LoadSubscription, id).Get(ctx, &lr); err != nil {
		workflow.GetLogger(ctx).Error("LoadSubscription activity failed", "Error", err)
		return nil, err
	}
	if !lr.Found || lr.Snapshot == nil {
		return nil, nil
	}
	return lr.Snapshot, nil
}

// fire отправляет одно напоминание. Ошибка доставки не прерывает процесс.
func (w *Workflow) fire(ctx workflow.Context, a *Activities, leadDays int, snap *models.SubscriptionSnapshot, res *Result) {
	in := SendInput{LeadDays: leadDays, Snapshot: *snap}
	if err := workflow.ExecuteActivity(ctx, a.SendReminder, in).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Error("Reminder delivery failed", "lead_days", leadDays, "Error", err)
		res.Failed++
		return
	}
	res.Sent++
}

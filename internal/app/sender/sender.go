// Package sender собирает отправитель уведомлений: читает напоминания
// из RabbitMQ и доставляет их по SMTP.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/subscription-tracker/internal/services/sender"
)

// ReminderQueue очередь напоминаний о продлении.
const ReminderQueue = "notification.reminder"

// App отправитель уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
	requeueDelay  time.Duration
}

// New подключается к брокеру и настраивает SMTP-транспорт.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport, err := smtp.NewTransport(cfg.SMTP, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	senderService := senderservice.NewSenderService(logger, transport, cfg.LeadDays, cfg.ClientURL)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
		requeueDelay:  cfg.RabbitMQRequeueDelay,
	}, nil
}

// Handle обрабатывает одно сообщение. Неразбираемые сообщения и неизвестные
// типы уведомлений отбрасываются, остальные ошибки возвращают сообщение в очередь.
func Handle(service func(ctx context.Context, body []byte) error) rabbitmq.Handler {
	return func(ctx context.Context, body []byte) error {
		err := service(ctx, body)
		if errors.Is(err, senderservice.ErrInvalidMessage) || errors.Is(err, senderservice.ErrUnknownKind) {
			return rabbitmq.Permanent(err)
		}
		return err
	}
}

// Run обрабатывает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, ReminderQueue, Handle(a.senderService.HandleReminder),
		rabbitmq.WithRequeueDelay(a.requeueDelay))
	if err != nil {
		a.logger.Error("failed to start reminder consumer", sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}

	return nil
}

package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
)

// Handler обрабатывает тело сообщения. Ошибка возвращает сообщение в очередь,
// кроме ошибок, обёрнутых в Permanent.
type Handler func(ctx context.Context, body []byte) error

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку как неисправимую: сообщение отбрасывается без повторной доставки.
func Permanent(err error) error {
	return &permanentError{err: err}
}

// IsPermanent сообщает, помечена ли ошибка через Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// DefaultRequeueDelay пауза перед повторной доставкой, если она не задана.
const DefaultRequeueDelay = 10 * time.Second

// ConsumerOption настраивает ConsumerMessage.
type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	requeueDelay time.Duration
}

// WithRequeueDelay задаёт паузу перед возвратом сообщения в очередь.
// Пока идёт пауза, сообщение занимает слот обработки, поэтому при долгом
// сбое получателя очередь читается медленнее, а не по кругу.
func WithRequeueDelay(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		if d > 0 {
			o.requeueDelay = d
		}
	}
}

// acknowledger часть amqp.Delivery, нужная для подтверждения.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// ConsumerMessage запускает обработку сообщений очереди в фоне, не больше 10 одновременно.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler Handler,
	opts ...ConsumerOption) error {
	const op = "rabbitmq.ConsumerMessage"
	o := consumerOptions{requeueDelay: DefaultRequeueDelay}
	for _, opt := range opts {
		opt(&o)
	}

	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(sl.Op(op), slog.String("queue", queueName))
	sem := make(chan struct{}, 10)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					log.Info("delivery channel closed")
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					settle(ctx, log, d, handler(ctx, d.Body), o.requeueDelay)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// settle подтверждает сообщение по результату обработки. Временная ошибка
// возвращает сообщение в очередь после паузы delay, постоянная отбрасывает его.
// Отмена ctx прерывает паузу, сообщение при этом всё равно возвращается.
func settle(ctx context.Context, log *slog.Logger, d acknowledger, handleErr error, delay time.Duration) {
	if handleErr == nil {
		if err := d.Ack(false); err != nil {
			log.Error("failed to ack message", sl.Err(err))
		}
		return
	}

	if IsPermanent(handleErr) {
		log.Error("failed to handle message", sl.Err(handleErr), slog.Bool("requeue", false))
		if err := d.Nack(false, false); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}
		return
	}

	log.Error("failed to handle message", sl.Err(handleErr),
		slog.Bool("requeue", true), slog.Duration("requeue_delay", delay))
	timer := time.NewTimer(delay)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
	}
	if err := d.Nack(false, true); err != nil {
		log.Error("failed to nack message", sl.Err(err))
	}
}

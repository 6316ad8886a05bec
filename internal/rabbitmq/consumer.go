package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/lesson-runtime/internal/lib/sl"
)

// ErrPermanent помечает ошибку обработчика, после которой сообщение не возвращается в очередь.
var ErrPermanent = errors.New("permanent failure")

// Acknowledger — часть amqp.Delivery, нужная для подтверждения.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// ConsumerMessage запускает потребителя очереди queueName. Сообщения обрабатываются
// по одному в порядке доставки: события биллинга должны попадать в стор в том же порядке.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"
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

	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					log.Info("delivery channel closed", slog.String("queue", queueName))
					return
				}
				Settle(d, d.Body, handler, log)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Settle вызывает handler и подтверждает сообщение. Ошибка с ErrPermanent
// отбрасывает сообщение, любая другая возвращает его в очередь.
func Settle(ack Acknowledger, body []byte, handler func([]byte) error, log *slog.Logger) {
	err := handler(body)
	if err == nil {
		if ackErr := ack.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
		return
	}

	requeue := !errors.Is(err, ErrPermanent)
	log.Warn("message handling failed", sl.Err(err), slog.Bool("requeue", requeue))
	if nackErr := ack.Nack(false, requeue); nackErr != nil {
		log.Error("failed to nack message", sl.Err(nackErr))
	}
}

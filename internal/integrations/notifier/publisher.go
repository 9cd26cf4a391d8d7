package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Publisher публикует события бронирований в RabbitMQ.
// Доставка fire-and-forget: ошибки публикации логируются и не откатывают
// переход статуса бронирования.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  Logger
}

// New подключается к брокеру и объявляет durable-очереди событий
func New(url string, log Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("notifier: dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("notifier: open channel: %w", err)
	}

	for _, event := range events {
		if _, err := ch.QueueDeclare(
			string(event), // name
			true,          // durable
			false,         // autoDelete
			false,         // exclusive
			false,         // noWait
			nil,           // args
		); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("notifier: declare queue %s: %w", event, err)
		}
	}

	return &Publisher{
		conn: conn,
		ch:   ch,
		log:  log,
	}, nil
}

// NewDisabled создает publisher-заглушку для окружений без брокера.
// Все публикации превращаются в no-op.
func NewDisabled(log Logger) *Publisher {
	return &Publisher{log: log}
}

// Publish публикует событие в очередь с его именем.
// Сообщения persistent, чтобы переживать рестарты брокера.
func (p *Publisher) Publish(ctx context.Context, event Event, payload BookingEvent) error {
	if p.ch == nil {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("notifier: marshal event %s for booking id=%d: %v", event, payload.BookingID, err)
		return fmt.Errorf("notifier: marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",            // default exchange
		string(event), // routing key = имя очереди
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)

	if err != nil {
		p.log.Error("notifier: publish event %s for booking id=%d: %v", event, payload.BookingID, err)
		return fmt.Errorf("notifier: publish event: %w", err)
	}

	p.log.Info("notifier: published event %s for booking id=%d", event, payload.BookingID)
	return nil
}

// Close закрывает канал и соединение с брокером
func (p *Publisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

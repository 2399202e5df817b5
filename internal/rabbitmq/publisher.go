package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/Shivamsinghmer/ExpenseIQ/internal/models"
)

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует события биллинга в exchange billing.events.
type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// PublishOrderEvent публикует событие терминального перехода ордера.
// Ключ маршрутизации строится из статуса: order.paid, order.failed, order.cancelled.
func (p *Publisher) PublishOrderEvent(event models.OrderEvent) error {
	routingKey := "order." + map[string]string{
		models.OrderStatusPaid:      "paid",
		models.OrderStatusFailed:    "failed",
		models.OrderStatusCancelled: "cancelled",
	}[event.Status]
	return PublishMessage(p.ch, BillingExchange, routingKey, event)
}

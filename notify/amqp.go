package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-pos-api/models"
)

const notificationsExchange = "pos_notifications_fanout"

// AMQPNotifier broadcasts notifications as JSON messages on a fanout
// exchange. Publishing is best-effort: errors are logged and dropped,
// never surfaced to the caller.
type AMQPNotifier struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	log     *slog.Logger
}

// NewAMQPNotifier dials the broker and declares the fanout exchange.
func NewAMQPNotifier(url string, log *slog.Logger) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(
		notificationsExchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPNotifier{conn: conn, channel: ch, log: log}, nil
}

type envelope struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

func (n *AMQPNotifier) publish(event string, payload interface{}) {
	body, err := json.Marshal(envelope{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		n.log.Error("failed to marshal notification", slog.String("event", event), slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = n.channel.PublishWithContext(ctx,
		notificationsExchange,
		"",    // routing key (fanout ignores it)
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		n.log.Error("failed to publish notification", slog.String("event", event), slog.Any("error", err))
	}
}

func (n *AMQPNotifier) NotifyKitchen(ticket KitchenTicket) {
	n.publish("kitchen_ticket", ticket)
}

func (n *AMQPNotifier) NotifyOrderUpdate(order *models.Order) {
	n.publish("order_update", order)
}

func (n *AMQPNotifier) NotifyTableUpdate(table *models.Table) {
	n.publish("table_update", table)
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		n.conn.Close()
	}
}

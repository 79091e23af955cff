package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends domain events to RabbitMQ.  Each publish opens its own
// connection; failures are logged and returned so the caller can ignore
// them without interrupting the request flow.
type Publisher struct {
	url    string
	logger *log.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, logger *log.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

// PublishReservationConfirmed publishes ev to the reservation.confirmed
// queue as a persistent JSON message.
func (p *Publisher) PublishReservationConfirmed(ctx context.Context, ev ReservationConfirmedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warnf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warnf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declareReservationQueue(ch); err != nil {
		p.logger.Warnf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.ReservationID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", ReservationQueue, false, false, pub); err != nil {
		p.logger.Warnf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

func declareReservationQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		ReservationQueue, // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
	)
	return err
}

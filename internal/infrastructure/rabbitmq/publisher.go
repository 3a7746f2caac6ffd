package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/jhoicas/lotes-remision/internal/application/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher serializa el evento a JSON y lo publica con la clave de ruteo indicada.
type Publisher struct {
	source   func() (channel, error)
	exchange string
	log      zerolog.Logger
	now      func() time.Time
}

// NewPublisher construye el publicador sobre un Client conectado.
func NewPublisher(client *Client, log zerolog.Logger) *Publisher {
	return &Publisher{
		source:   client.channel,
		exchange: client.cfg.Exchange,
		log:      log.With().Str("component", "rabbitmq").Logger(),
		now:      time.Now,
	}
}

// Publish envía el evento como mensaje persistente.
func (p *Publisher) Publish(ctx context.Context, routingKey string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ch, err := p.source()
	if err != nil {
		return err
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", routingKey, err)
	}
	id := uuid.New().String()
	err = ch.Publish(p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    p.now(),
		Type:         routingKey,
		Headers:      amqp.Table{"event_type": routingKey},
	})
	if err != nil {
		return fmt.Errorf("publicar evento %s: %w", routingKey, err)
	}
	p.log.Debug().Str("routing_key", routingKey).Str("message_id", id).Msg("evento publicado")
	return nil
}

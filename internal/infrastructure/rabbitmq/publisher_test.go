package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-remision/internal/application/ports"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func newTestPublisher(ch *fakeChannel, srcErr error) *Publisher {
	return &Publisher{
		source: func() (channel, error) {
			if srcErr != nil {
				return nil, srcErr
			}
			return ch, nil
		},
		exchange: "lotes",
		log:      zerolog.Nop(),
		now:      func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch, nil)

	ev := ports.ShipmentConfirmedEvent{ShipmentID: "s-1", Number: 7, OperatorID: "op-1", Lines: 2, Quantity: 9}
	require.NoError(t, p.Publish(context.Background(), ports.EventShipmentConfirmed, ev))

	assert.Equal(t, "lotes", ch.exchange)
	assert.Equal(t, ports.EventShipmentConfirmed, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.NotEmpty(t, ch.msg.MessageId)

	var got ports.ShipmentConfirmedEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, int64(7), got.Number)
	assert.Equal(t, 9, got.Quantity)
}

func TestPublisher_NotConnected(t *testing.T) {
	p := newTestPublisher(nil, ErrNotConnected)
	err := p.Publish(context.Background(), ports.EventLowStock, ports.LowStockEvent{})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestPublisher_ChannelError(t *testing.T) {
	boom := errors.New("canal cerrado")
	p := newTestPublisher(&fakeChannel{err: boom}, nil)
	err := p.Publish(context.Background(), ports.EventCountApplied, ports.CountAppliedEvent{})
	assert.ErrorIs(t, err, boom)
}

func TestPublisher_UnserializableEvent(t *testing.T) {
	ch := &fakeChannel{}
	p := newTestPublisher(ch, nil)
	err := p.Publish(context.Background(), "x", map[string]any{"f": func() {}})
	assert.Error(t, err)
	assert.Empty(t, ch.key)
}

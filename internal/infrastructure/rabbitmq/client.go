// Package rabbitmq publica los eventos de dominio en un exchange topic de RabbitMQ.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// ErrNotConnected no hay conexión activa con el broker.
var ErrNotConnected = errors.New("sin conexión a RabbitMQ")

// Config conexión y exchange.
type Config struct {
	URL        string
	Exchange   string
	RetryCount int
	RetryDelay time.Duration
}

// Client mantiene la conexión y el canal; se reconecta si el broker cierra la conexión.
type Client struct {
	cfg  Config
	log  zerolog.Logger
	mu   sync.RWMutex
	conn *amqp.Connection
	ch   *amqp.Channel

	closing bool
}

// NewClient construye el cliente sin conectar.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Client{cfg: cfg, log: log.With().Str("component", "rabbitmq").Logger()}
}

// Connect abre conexión y canal y declara el exchange (topic, durable).
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for i := 0; i < c.cfg.RetryCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.cfg.URL)
		if err != nil {
			lastErr = err
			c.log.Warn().Err(err).Int("attempt", i+1).Int("of", c.cfg.RetryCount).Msg("no se pudo conectar a RabbitMQ")
			if i < c.cfg.RetryCount-1 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(c.cfg.RetryDelay):
				}
			}
			continue
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("abrir canal: %w", err)
		}
		if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return fmt.Errorf("declarar exchange %s: %w", c.cfg.Exchange, err)
		}
		c.conn, c.ch = conn, ch
		c.log.Info().Str("exchange", c.cfg.Exchange).Msg("conectado a RabbitMQ")
		go c.watch(conn)
		return nil
	}
	return fmt.Errorf("conectar a RabbitMQ: %w", lastErr)
}

func (c *Client) watch(conn *amqp.Connection) {
	err, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	c.mu.RLock()
	closing := c.closing
	c.mu.RUnlock()
	if closing || !ok {
		return
	}
	c.log.Warn().Interface("reason", err).Msg("conexión con RabbitMQ perdida, reconectando")
	time.Sleep(c.cfg.RetryDelay)
	if err := c.Connect(context.Background()); err != nil {
		c.log.Error().Err(err).Msg("reconexión fallida")
	}
}

func (c *Client) channel() (channel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil || c.conn.IsClosed() || c.ch == nil {
		return nil, ErrNotConnected
	}
	return c.ch, nil
}

// Close cierra canal y conexión; no reconecta después.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return nil
	}
	c.closing = true
	var errs []error
	if c.ch != nil {
		if err := c.ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cerrar canal: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cerrar conexión: %w", err))
		}
	}
	return errors.Join(errs...)
}

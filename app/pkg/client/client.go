package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dnsx2k/hmsbase/app/pkg/helpers"
	"github.com/dnsx2k/hmsbase/app/pkg/listener"
	"github.com/dnsx2k/hmsbase/app/pkg/rabbit"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Client - overlay for microservices communication over a direct exchange.
// A client owns its connection exclusively; it can't be reused after a failed Connect.
type Client struct {
	name        string
	exchange    string
	routingKeys []string
	listeners   []listener.Listener
	logger      *zap.Logger
	dial        rabbit.Dialer

	mutex        sync.Mutex
	orchestrator rabbit.AmqpOrchestrator
	queue        string
	deliveries   <-chan amqp.Delivery
	stopCh       chan struct{}
}

type settings struct {
	listeners  []listener.Listener
	enablePing bool
	logger     *zap.Logger
	dial       rabbit.Dialer
}

// Option - configures client at construction
type Option func(s *settings)

// WithListeners - registers listeners, they are called in given order after the ping responder
func WithListeners(listeners ...listener.Listener) Option {
	return func(s *settings) {
		s.listeners = append(s.listeners, listeners...)
	}
}

// WithPingResponse - enables or disables answering ping requests, enabled by default
func WithPingResponse(enabled bool) Option {
	return func(s *settings) {
		s.enablePing = enabled
	}
}

// WithLogger - sets logger, nop logger by default
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithDialer - replaces the amqp dialer
func WithDialer(dial rabbit.Dialer) Option {
	return func(s *settings) {
		s.dial = dial
	}
}

// New - creates disconnected client listening to routingKeys on exchange
func New(name, exchange string, routingKeys []string, opts ...Option) *Client {
	s := settings{
		enablePing: true,
		logger:     zap.NewNop(),
		dial:       rabbit.Init,
	}
	for _, opt := range opts {
		opt(&s)
	}

	c := &Client{
		name:        name,
		exchange:    exchange,
		routingKeys: append([]string(nil), routingKeys...),
		logger:      s.logger.With(zap.String("client", name)),
		dial:        s.dial,
	}

	if s.enablePing {
		c.listeners = append(c.listeners, listener.Topic(PingRoutingKey, c.answerPing))
		if !contains(c.routingKeys, PingRoutingKey) {
			c.routingKeys = append(c.routingKeys, PingRoutingKey)
		}
	}
	c.listeners = append(c.listeners, s.listeners...)

	return c
}

// Name - client name
func (c *Client) Name() string {
	return c.name
}

// RoutingKeys - routing keys the queue is bound with
func (c *Client) RoutingKeys() []string {
	return append([]string(nil), c.routingKeys...)
}

// Queue - broker assigned queue name, empty until connected
func (c *Client) Queue() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.queue
}

// Connected - reports whether connection handle is held
func (c *Client) Connected() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.orchestrator != nil
}

// Connect - connects to broker and sets up exchange, exclusive queue, bindings and consumer.
// Nothing is rolled back on failure, the client must be discarded.
func (c *Client) Connect(url string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.orchestrator != nil {
		return ErrAlreadyConnected
	}

	c.logger.Info("connecting to rabbitmq server")
	orch, err := c.dial(url, c.logger)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	c.orchestrator = orch

	c.logger.Info("declaring direct exchange", zap.String("exchange", c.exchange))
	if err = orch.CreateExchange(c.exchange, rabbit.ExchangeKind); err != nil {
		return fmt.Errorf("%w: declaring exchange %s: %w", ErrTopology, c.exchange, err)
	}

	c.logger.Info("creating exclusive queue")
	queue, err := orch.CreateExclusiveQueue()
	if err != nil {
		return fmt.Errorf("%w: declaring queue: %w", ErrTopology, err)
	}
	c.queue = queue

	for _, key := range c.routingKeys {
		c.logger.Info("binding queue", zap.String("queue", queue), zap.String("exchange", c.exchange), zap.String("routing_key", key))
		if err = orch.BindQueue(queue, key, c.exchange); err != nil {
			return fmt.Errorf("%w: binding %s: %w", ErrTopology, key, err)
		}
	}

	c.logger.Info("registering consumer", zap.String("queue", queue))
	deliveries, err := orch.Subscribe(queue, fmt.Sprintf("%s-%s", c.name, uuid.NewString()))
	if err != nil {
		return fmt.Errorf("%w: consuming %s: %w", ErrTopology, queue, err)
	}
	c.deliveries = deliveries

	return nil
}

// Publish - serializes dct to json and publishes it on exchange with routingKey, delivery isn't confirmed
func (c *Client) Publish(ctx context.Context, routingKey string, dct map[string]any) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.orchestrator == nil {
		return ErrNotConnected
	}

	body, err := helpers.EncodePayload(dct)
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %w", ErrPublish, err)
	}

	c.logger.Info("publishing message", zap.String("routing_key", routingKey), zap.ByteString("payload", body))
	if err = c.orchestrator.Publish(ctx, c.exchange, routingKey, helpers.WrapAmqpPublishing(c.name, body)); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	return nil
}

// Disconnect - closes connection, must not be called while consuming
func (c *Client) Disconnect() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.orchestrator == nil {
		return nil
	}

	c.logger.Info("disconnecting from rabbitmq server")
	err := c.orchestrator.Close()
	c.orchestrator = nil
	c.queue = ""
	c.deliveries = nil
	if err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}

	return nil
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

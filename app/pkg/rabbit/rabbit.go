package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AmqpOrchestrator - single connection and channel owned by one client
type AmqpOrchestrator interface {
	CreateExchange(exchange, kind string) error
	CreateExclusiveQueue() (string, error)
	BindQueue(queue, routingKey, exchange string) error
	Subscribe(queue, consumer string) (<-chan amqp.Delivery, error)
	Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error
	Close() error
}

// Dialer - opens orchestrator for given url
type Dialer func(url string, logger *zap.Logger) (AmqpOrchestrator, error)

type amqpConnection interface {
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpCtx struct {
	connection amqpConnection
	channel    amqpChannel
	logger     *zap.Logger
}

var dial = amqp.Dial

// Init - dials broker, opens channel, logs connection close notification
func Init(url string, logger *zap.Logger) (AmqpOrchestrator, error) {
	conn, err := dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return newAmqpCtx(conn, ch, logger), nil
}

func newAmqpCtx(conn amqpConnection, ch amqpChannel, logger *zap.Logger) *amqpCtx {
	actx := amqpCtx{
		connection: conn,
		channel:    ch,
		logger:     logger,
	}
	go actx.handleConnectionClose(conn.NotifyClose(make(chan *amqp.Error, 1)))

	return &actx
}

// CreateExchange - declares non durable exchange, existing exchange must be compatible
func (ac *amqpCtx) CreateExchange(exchange, kind string) error {
	return ac.channel.ExchangeDeclare(exchange, kind, false, false, false, false, nil)
}

// CreateExclusiveQueue - declares server named queue removed together with connection
func (ac *amqpCtx) CreateExclusiveQueue() (string, error) {
	q, err := ac.channel.QueueDeclare("", false, false, true, false, nil)
	if err != nil {
		return "", err
	}

	return q.Name, nil
}

// BindQueue - binds queue to exchange with routing key
func (ac *amqpCtx) BindQueue(queue, routingKey, exchange string) error {
	return ac.channel.QueueBind(queue, routingKey, exchange, false, nil)
}

// Subscribe - registers consumer without acknowledgements
func (ac *amqpCtx) Subscribe(queue, consumer string) (<-chan amqp.Delivery, error) {
	return ac.channel.Consume(queue, consumer, true, true, false, false, nil)
}

// Publish - publishes message without mandatory and immediate flags
func (ac *amqpCtx) Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	return ac.channel.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
}

// Close - closes channel and connection, connection is closed even if channel close fails
func (ac *amqpCtx) Close() error {
	chErr := ac.channel.Close()
	if err := ac.connection.Close(); err != nil {
		return err
	}

	return chErr
}

func (ac *amqpCtx) handleConnectionClose(c <-chan *amqp.Error) {
	for err := range c {
		ac.logger.Error("amqp connection closed", zap.Error(err))
	}
}

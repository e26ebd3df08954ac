package client

import (
	"context"
	"fmt"

	"github.com/dnsx2k/hmsbase/app/pkg/listener"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// StartConsuming - blocks and dispatches deliveries one at a time until StopConsuming is called,
// ctx is done or broker closes the delivery stream
func (c *Client) StartConsuming(ctx context.Context) error {
	c.mutex.Lock()
	if c.orchestrator == nil {
		c.mutex.Unlock()
		return ErrNotConnected
	}
	if c.stopCh != nil {
		c.mutex.Unlock()
		return ErrAlreadyConsuming
	}
	stopCh := make(chan struct{})
	c.stopCh = stopCh
	deliveries := c.deliveries
	c.mutex.Unlock()

	defer func() {
		c.mutex.Lock()
		c.stopCh = nil
		c.mutex.Unlock()
	}()

	c.logger.Info("starting passive consuming")
	for {
		// stop requested by the previous dispatch wins over pending deliveries
		select {
		case <-stopCh:
			return nil
		default:
		}

		select {
		case <-stopCh:
			return nil
		case <-ctx.Done():
			c.logger.Info("consuming interrupted", zap.Error(ctx.Err()))
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			c.dispatch(ctx, d)
		}
	}
}

// StopConsuming - makes StartConsuming return after in-flight dispatch, no-op when not consuming
func (c *Client) StopConsuming() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.stopCh == nil {
		return
	}

	select {
	case <-c.stopCh:
	default:
		c.logger.Info("stopping passive consuming")
		close(c.stopCh)
	}
}

func (c *Client) dispatch(ctx context.Context, d amqp.Delivery) {
	msg := listener.FromDelivery(d)
	c.logger.Debug("message received, calling listeners", zap.String("routing_key", msg.RoutingKey))

	for i, l := range c.listeners {
		if err := invoke(ctx, l, msg); err != nil {
			c.logger.Error("listener failed",
				zap.Int("listener", i),
				zap.String("routing_key", msg.RoutingKey),
				zap.String("message_id", msg.MessageID),
				zap.Error(err))
		}
	}
}

func invoke(ctx context.Context, l listener.Listener, msg listener.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrListener, r)
		}
	}()

	if err = l(ctx, msg.RoutingKey, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrListener, err)
	}
	return nil
}

package listener

import "context"

// Topic - returns listener which calls l only for messages delivered with given routing key
func Topic(topic string, l Listener) Listener {
	return func(ctx context.Context, routingKey string, msg Message) error {
		if routingKey != topic {
			return nil
		}
		return l(ctx, routingKey, msg)
	}
}

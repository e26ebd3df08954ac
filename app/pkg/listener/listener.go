package listener

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
)

// numbers decode as json.Number so integers survive re-encoding unchanged
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Listener - receives every inbound message, routing key is passed as second argument
type Listener func(ctx context.Context, routingKey string, msg Message) error

// Message - inbound message view built from amqp delivery
type Message struct {
	Exchange    string
	RoutingKey  string
	MessageID   string
	ContentType string
	Body        []byte
}

// FromDelivery - converts amqp delivery into message
func FromDelivery(d amqp.Delivery) Message {
	return Message{
		Exchange:    d.Exchange,
		RoutingKey:  d.RoutingKey,
		MessageID:   d.MessageId,
		ContentType: d.ContentType,
		Body:        d.Body,
	}
}

// Payload - decodes body as json object
func (m Message) Payload() (map[string]any, error) {
	payload := map[string]any{}
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		return nil, err
	}

	return payload, nil
}

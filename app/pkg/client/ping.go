package client

import (
	"context"
	"fmt"

	"github.com/dnsx2k/hmsbase/app/pkg/listener"
	"github.com/google/uuid"
)

const (
	PingRoutingKey = "ping"

	PingTypeRequest = "request"
	PingTypeAnswer  = "answer"
)

// Ping - broadcasts ping request to every client bound to the exchange, returns request id
func (c *Client) Ping(ctx context.Context) (string, error) {
	id := uuid.NewString()
	req := map[string]any{
		"type": PingTypeRequest,
		"name": c.name,
		"id":   id,
	}
	if err := c.Publish(ctx, PingRoutingKey, req); err != nil {
		return "", err
	}

	return id, nil
}

func (c *Client) answerPing(ctx context.Context, _ string, msg listener.Message) error {
	payload, err := msg.Payload()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	if payload["type"] != PingTypeRequest {
		return nil
	}

	return c.Publish(ctx, PingRoutingKey, map[string]any{
		"type":   PingTypeAnswer,
		"name":   c.name,
		"source": payload,
	})
}

package client

import "errors"

var (
	ErrConnection       = errors.New("broker connection failed")
	ErrTopology         = errors.New("broker topology setup failed")
	ErrPublish          = errors.New("publish failed")
	ErrNotConnected     = errors.New("client not connected")
	ErrAlreadyConnected = errors.New("client already connected")
	ErrAlreadyConsuming = errors.New("client already consuming")
	ErrDeliveriesClosed = errors.New("delivery stream closed by broker")
	ErrListener         = errors.New("listener failed")
	ErrMalformedPayload = errors.New("malformed payload")
)

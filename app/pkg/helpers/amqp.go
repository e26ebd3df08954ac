package helpers

import (
	"time"

	"github.com/dnsx2k/hmsbase/app/pkg/rabbit"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WrapAmqpPublishing - returns amqp publishing with msg inside, appID identifies sending client
func WrapAmqpPublishing(appID string, msg []byte) amqp.Publishing {
	return amqp.Publishing{
		ContentType: rabbit.ContentTypeJSON,
		MessageId:   uuid.NewString(),
		Timestamp:   time.Now(),
		AppId:       appID,
		Body:        msg,
	}
}

// EncodePayload - serializes structured payload to json
func EncodePayload(dct map[string]any) ([]byte, error) {
	return json.Marshal(dct)
}

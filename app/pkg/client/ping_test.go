package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingResponder_Request(t *testing.T) {
	c, fake, _ := newConnected(t)

	c.dispatch(context.Background(), delivery("ping", `{"type": "request"}`))

	pubs := fake.Published()
	require.Len(t, pubs, 1)
	assert.Equal(t, "haum", pubs[0].exchange)
	assert.Equal(t, "ping", pubs[0].routingKey)
	assert.JSONEq(t, `{"type":"answer","name":"svc-a","source":{"type":"request"}}`, string(pubs[0].msg.Body))
}

func TestPingResponder_SourceKeepsUnknownFields(t *testing.T) {
	c, fake, _ := newConnected(t)

	c.dispatch(context.Background(), delivery("ping", `{"type":"request","name":"supervisor","id":"42","extra":[1,2]}`))

	pubs := fake.Published()
	require.Len(t, pubs, 1)
	assert.JSONEq(t,
		`{"type":"answer","name":"svc-a","source":{"type":"request","name":"supervisor","id":"42","extra":[1,2]}}`,
		string(pubs[0].msg.Body))
}

func TestPingResponder_SourceKeepsLargeIntegers(t *testing.T) {
	c, fake, _ := newConnected(t)

	c.dispatch(context.Background(), delivery("ping", `{"type":"request","seq":9007199254740993}`))

	pubs := fake.Published()
	require.Len(t, pubs, 1)
	assert.Contains(t, string(pubs[0].msg.Body), `"seq":9007199254740993`)
	assert.JSONEq(t, `{"type":"answer","name":"svc-a","source":{"type":"request","seq":9007199254740993}}`, string(pubs[0].msg.Body))
}

func TestPingResponder_IgnoresAnswer(t *testing.T) {
	c, fake, _ := newConnected(t)

	c.dispatch(context.Background(), delivery("ping", `{"type":"answer","name":"svc-b","source":{"type":"request"}}`))
	c.dispatch(context.Background(), delivery("ping", `{"name":"no type"}`))

	assert.Empty(t, fake.Published())
}

func TestPingResponder_IgnoresOtherRoutingKeys(t *testing.T) {
	c, fake, _ := newConnected(t)

	c.dispatch(context.Background(), delivery("test", `{"type":"request"}`))

	assert.Empty(t, fake.Published())
}

func TestPingResponder_MalformedPayload(t *testing.T) {
	c, fake, logs := newConnected(t)

	c.dispatch(context.Background(), delivery("ping", `not json`))

	assert.Empty(t, fake.Published())
	entries := logs.FilterMessage("listener failed").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], ErrMalformedPayload.Error())
}

func TestPingResponder_Disabled(t *testing.T) {
	c, fake, _ := newConnected(t, WithPingResponse(false))

	c.dispatch(context.Background(), delivery("ping", `{"type":"request"}`))

	assert.Empty(t, fake.Published())
}

func TestPing(t *testing.T) {
	c, fake, _ := newConnected(t)

	id, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	pubs := fake.Published()
	require.Len(t, pubs, 1)
	assert.Equal(t, "ping", pubs[0].routingKey)
	assert.JSONEq(t, `{"type":"request","name":"svc-a","id":"`+id+`"}`, string(pubs[0].msg.Body))
}

func TestPing_NotConnected(t *testing.T) {
	c := New("svc-a", "haum", nil)

	_, err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

package client

import (
	"context"
	"sync"

	"github.com/dnsx2k/hmsbase/app/pkg/rabbit"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type published struct {
	exchange   string
	routingKey string
	msg        amqp.Publishing
}

type fakeOrchestrator struct {
	mutex      sync.Mutex
	calls      []string
	errs       map[string]error
	published  []published
	deliveries chan amqp.Delivery
	closed     bool
}

func newFakeOrchestrator() *fakeOrchestrator {
	return &fakeOrchestrator{
		errs:       make(map[string]error),
		deliveries: make(chan amqp.Delivery, 16),
	}
}

func (f *fakeOrchestrator) record(call string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = append(f.calls, call)
	return f.errs[call]
}

func (f *fakeOrchestrator) CreateExchange(exchange, kind string) error {
	return f.record("exchange " + exchange + " " + kind)
}

func (f *fakeOrchestrator) CreateExclusiveQueue() (string, error) {
	if err := f.record("queue"); err != nil {
		return "", err
	}
	return "amq.gen-test", nil
}

func (f *fakeOrchestrator) BindQueue(queue, routingKey, exchange string) error {
	return f.record("bind " + queue + " " + routingKey + " " + exchange)
}

func (f *fakeOrchestrator) Subscribe(queue, consumer string) (<-chan amqp.Delivery, error) {
	if err := f.record("subscribe " + queue); err != nil {
		return nil, err
	}
	return f.deliveries, nil
}

func (f *fakeOrchestrator) Publish(_ context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	if err := f.record("publish " + routingKey); err != nil {
		return err
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.published = append(f.published, published{exchange: exchange, routingKey: routingKey, msg: msg})
	return nil
}

func (f *fakeOrchestrator) Close() error {
	err := f.record("close")
	f.mutex.Lock()
	f.closed = true
	f.mutex.Unlock()
	return err
}

func (f *fakeOrchestrator) Published() []published {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]published(nil), f.published...)
}

func (f *fakeOrchestrator) dialer() rabbit.Dialer {
	return func(string, *zap.Logger) (rabbit.AmqpOrchestrator, error) {
		return f, nil
	}
}

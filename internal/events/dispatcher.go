package events

import (
	"context"
	"errors"
	"sync"

	"delivery-service/internal/domain"
	"delivery-service/internal/infra/rabbitmq"
	"delivery-service/internal/logger"
)

type Handler func(ctx context.Context, evt domain.Event) error

// Dispatcher delivers domain events to in-process handlers synchronously and
// then forwards them to the broker in the background.
type Dispatcher struct {
	mu        sync.RWMutex
	handlers  map[string][]Handler
	publisher rabbitmq.PublisherInterface
	log       *logger.Logger
	inflight  sync.WaitGroup
}

func NewDispatcher(pub rabbitmq.PublisherInterface, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		handlers:  make(map[string][]Handler),
		publisher: pub,
		log:       log.WithComponent("events"),
	}
}

func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Dispatch runs the local handlers and then publishes the event. It returns
// the joined handler errors; broker failures are logged only.
func (d *Dispatcher) Dispatch(ctx context.Context, evt domain.Event) error {
	err := d.Handle(ctx, evt)
	d.Publish(ctx, evt)
	return err
}

// Handle runs only the in-process handlers, with the caller's ctx. Callers
// inside a transaction use it so handlers join that transaction, and call
// Publish once it has committed.
func (d *Dispatcher) Handle(ctx context.Context, evt domain.Event) error {
	d.mu.RLock()
	handlers := d.handlers[evt.EventName()]
	d.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Publish forwards evt to the broker in the background.
func (d *Dispatcher) Publish(ctx context.Context, evt domain.Event) {
	if d.publisher == nil {
		return
	}
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.publish(context.WithoutCancel(ctx), evt)
	}()
}

// Wait blocks until every background publish has finished.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) publish(ctx context.Context, evt domain.Event) {
	if err := d.publisher.Publish(ctx, evt.EventName(), evt); err != nil {
		d.log.Warn("failed to publish event", "event", evt.EventName(), "error", err)
		return
	}
	d.log.Debug("event published", "event", evt.EventName())
}

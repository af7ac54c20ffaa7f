package bus

import (
	"context"
	"sync"

	"servicehub/internal/domain/event"

	"github.com/rs/zerolog"
)

// AsyncEventBus implements EventBus with asynchronous publishing. Command
// handlers publish after commit, so a slow subscriber never holds up a
// request.
type AsyncEventBus struct {
	handlers map[string][]EventHandler
	logger   zerolog.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
	errorCh  chan error
	closeErr sync.Once
}

// NewAsyncEventBus creates a new async event bus
func NewAsyncEventBus(logger zerolog.Logger) *AsyncEventBus {
	return &AsyncEventBus{
		handlers: make(map[string][]EventHandler),
		logger:   logger,
		errorCh:  make(chan error, 100),
	}
}

// Subscribe registers a handler for a specific event type
func (b *AsyncEventBus) Subscribe(eventType string, handler EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Start begins monitoring handler errors
func (b *AsyncEventBus) Start(ctx context.Context) error {
	go func() {
		for {
			select {
			case err, ok := <-b.errorCh:
				if !ok {
					return
				}
				b.logger.Error().Err(err).Msg("async event handler error")
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop waits for in-flight handlers and shuts the bus down
func (b *AsyncEventBus) Stop() error {
	b.wg.Wait()
	b.closeErr.Do(func() { close(b.errorCh) })
	return nil
}

// Publish delivers an event asynchronously to all subscribed handlers
func (b *AsyncEventBus) Publish(ctx context.Context, evt event.DomainEvent) error {
	b.mu.RLock()
	handlers := b.handlers[evt.EventType()]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	b.wg.Add(len(handlers))
	for _, handler := range handlers {
		go b.publishToHandler(ctx, handler, evt)
	}

	return nil
}

// PublishBatch publishes multiple events asynchronously
func (b *AsyncEventBus) PublishBatch(ctx context.Context, events []event.DomainEvent) error {
	for _, evt := range events {
		if err := b.Publish(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Wait blocks until all in-flight handlers complete
func (b *AsyncEventBus) Wait() {
	b.wg.Wait()
}

func (b *AsyncEventBus) publishToHandler(ctx context.Context, handler EventHandler, evt event.DomainEvent) {
	defer b.wg.Done()

	if err := handler.Handle(ctx, evt); err != nil {
		b.logger.Error().
			Err(err).
			Str("event_type", evt.EventType()).
			Str("aggregate_id", evt.AggregateID()).
			Msg("event handler failed")

		select {
		case b.errorCh <- err:
		default:
		}
	}
}

package eventbus

import (
	"context"
	"sync"

	"github.com/rs/xid"
)

// Handler represents an event handler function
type Handler func(event *Event)

// Bus represents an event bus
type Bus interface {
	// Publish delivers an event to all subscribers before returning
	Publish(event *Event)

	// PublishAsync queues an event; it is dropped if the queue is full
	PublishAsync(event *Event)

	// Subscribe subscribes to events of a specific type
	Subscribe(eventType EventType, handler Handler) string

	// SubscribeAll subscribes to all events
	SubscribeAll(handler Handler) string

	// Unsubscribe removes a subscription
	Unsubscribe(id string)
}

type subscription struct {
	id      string
	handler Handler
}

// InMemoryBus is an in-memory implementation of the event bus
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]subscription
	allHandlers []subscription

	eventChan chan *Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

var _ Bus = (*InMemoryBus)(nil)

// NewInMemoryBus creates a new in-memory event bus
func NewInMemoryBus(bufferSize int) *InMemoryBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &InMemoryBus{
		subscribers: make(map[EventType][]subscription),
		eventChan:   make(chan *Event, bufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (b *InMemoryBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[event.Type])+len(b.allHandlers))
	for _, sub := range b.subscribers[event.Type] {
		handlers = append(handlers, sub.handler)
	}
	for _, sub := range b.allHandlers {
		handlers = append(handlers, sub.handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (b *InMemoryBus) PublishAsync(event *Event) {
	select {
	case <-b.ctx.Done():
	case b.eventChan <- event:
	default:
	}
}

func (b *InMemoryBus) Subscribe(eventType EventType, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscription{id: xid.New().String(), handler: handler}
	b.subscribers[eventType] = append(b.subscribers[eventType], sub)
	return sub.id
}

func (b *InMemoryBus) SubscribeAll(handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscription{id: xid.New().String(), handler: handler}
	b.allHandlers = append(b.allHandlers, sub)
	return sub.id
}

func (b *InMemoryBus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscribers {
		for i, sub := range subs {
			if sub.id == id {
				b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}

	for i, sub := range b.allHandlers {
		if sub.id == id {
			b.allHandlers = append(b.allHandlers[:i:i], b.allHandlers[i+1:]...)
			return
		}
	}
}

// Start delivers queued async events until ctx is done or Stop is called.
func (b *InMemoryBus) Start(ctx context.Context) {
	b.wg.Add(1)
	go b.processEvents(ctx)
}

// Stop stops delivery and waits for the worker. Queued events still
// pending are dropped.
func (b *InMemoryBus) Stop() {
	b.cancel()
	b.wg.Wait()
}

func (b *InMemoryBus) processEvents(ctx context.Context) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.ctx.Done():
			return
		case event := <-b.eventChan:
			if event != nil {
				b.Publish(event)
			}
		}
	}
}

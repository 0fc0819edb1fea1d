package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

const (
	EventBookingCreated  = "booking_created"
	EventBookingApproved = "booking_approved"
	EventBookingRejected = "booking_rejected"
	EventCommentAdded    = "comment_added"
)

// BookingEventPayload is the booking snapshot handed to subscribers.
type BookingEventPayload struct {
	BookingID int64     `json:"booking_id"`
	ItemID    int64     `json:"item_id"`
	ItemName  string    `json:"item_name"`
	BookerID  int64     `json:"booker_id"`
	OwnerID   int64     `json:"owner_id"`
	Status    string    `json:"status"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	ActorID   int64     `json:"actor_id"`
}

type CommentEventPayload struct {
	CommentID int64     `json:"comment_id"`
	ItemID    int64     `json:"item_id"`
	AuthorID  int64     `json:"author_id"`
	Created   time.Time `json:"created"`
}

type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

type EventHandler func(event *Event) error

// ErrorHandler is told about handlers that returned an error.
type ErrorHandler func(event *Event, err error)

// EventBus is an in-process pub/sub. Handlers run synchronously on the
// publishing goroutine.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	seq         atomic.Int64
	onError     ErrorHandler
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError installs a sink for handler failures.
func (b *EventBus) OnError(h ErrorHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = h
}

func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers handler for each of the given types.
func (b *EventBus) SubscribeAll(handler EventHandler, eventTypes ...string) {
	for _, t := range eventTypes {
		b.Subscribe(t, handler)
	}
}

func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.ID == 0 {
		event.ID = b.seq.Add(1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON serializes payload and publishes it. A nil bus drops it.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

package handlers

import "sync"

// TaskEvent announces a change to a user's data so connected clients
// (SSE and websocket subscribers) can refresh their view.
type TaskEvent struct {
	UserID string `json:"user_id"`
	Kind   string `json:"kind"` // "tasks_changed", "conversation_changed"
}

// EventBus is a simple pub/sub for task-change events.
type EventBus struct {
	mu      sync.Mutex
	clients map[chan TaskEvent]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		clients: make(map[chan TaskEvent]struct{}),
	}
}

// Subscribe returns a channel that receives broadcast events.
func (eb *EventBus) Subscribe() chan TaskEvent {
	ch := make(chan TaskEvent, 16)
	eb.mu.Lock()
	eb.clients[ch] = struct{}{}
	eb.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel.
func (eb *EventBus) Unsubscribe(ch chan TaskEvent) {
	eb.mu.Lock()
	delete(eb.clients, ch)
	eb.mu.Unlock()
}

// Broadcast sends an event to all subscribers. Slow subscribers with a
// full buffer miss the event rather than blocking the sender.
func (eb *EventBus) Broadcast(evt TaskEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for ch := range eb.clients {
		select {
		case ch <- evt:
		default:
		}
	}
}

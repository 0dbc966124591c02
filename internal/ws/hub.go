package ws

import (
	"context"
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// topicEvent routes an event to the clients of one topic
type topicEvent struct {
	Topic string
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by topic
	rooms map[string]map[*Client]bool

	// Known topics; subscriptions to anything else are refused
	topics map[string]bool

	// Roles allowed per topic. A topic with no entry is open to every role.
	roles map[string][]string

	register   chan *Client
	unregister chan *Client
	broadcast  chan *topicEvent

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// NewHub creates a Hub that accepts subscriptions to the given topics
func NewHub(topics ...string) *Hub {
	known := make(map[string]bool, len(topics))
	for _, t := range topics {
		known[t] = true
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		topics:     known,
		roles:      make(map[string][]string),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *topicEvent, 256),
		done:       make(chan struct{}),
	}
}

// HasTopic reports whether clients may subscribe to topic
func (h *Hub) HasTopic(topic string) bool {
	return h.topics[topic]
}

// Restrict limits subscriptions to topic to the given roles.
// Call it before Run.
func (h *Hub) Restrict(topic string, roles ...string) {
	h.roles[topic] = roles
}

// CanSubscribe reports whether a user with role may listen on topic
func (h *Hub) CanSubscribe(topic, role string) bool {
	allowed, ok := h.roles[topic]
	if !ok {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// Run starts the hub's main loop and returns when ctx is done.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for topic, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, topic)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.topic] == nil {
				h.rooms[client.topic] = make(map[*Client]bool)
			}
			h.rooms[client.topic][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.topic]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.topic)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Topic]

			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.Topic], client)
					if len(h.rooms[event.Topic]) == 0 {
						delete(h.rooms, event.Topic)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// join hands client to the hub. It reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish marshals payload and broadcasts it. Events are best effort: a
// payload that cannot be encoded is logged and dropped, and a full queue
// drops the event rather than blocking the request that produced it.
func (h *Hub) Publish(topic, eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).WithField("event", eventType).Error("marshal websocket event")
		return
	}
	select {
	case h.broadcast <- &topicEvent{Topic: topic, Event: Event{Type: eventType, Payload: raw}}:
	default:
		log.WithField("event", eventType).Warn("websocket broadcast queue full, event dropped")
	}
}

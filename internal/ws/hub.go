package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventSubscriptionUpdated tells clients to refetch subscription status.
const EventSubscriptionUpdated = "subscription.updated"

// Event is a message pushed to every client in a restaurant room.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type roomEvent struct {
	RestaurantID uuid.UUID
	Event        Event
}

// Hub keeps one room of clients per restaurant. Room membership only changes
// on the Run goroutine.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomEvent
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a Hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is canceled, then
// closes every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.restaurantID] == nil {
				h.rooms[client.restaurantID] = make(map[*Client]bool)
			}
			h.rooms[client.restaurantID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				zap.L().Error("marshal ws event", zap.Error(err), zap.String("type", event.Event.Type))
				continue
			}
			h.mu.Lock()
			for client := range h.rooms[event.RestaurantID] {
				select {
				case client.send <- message:
				default:
					// Slow consumer.
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove drops client from its room and closes its send channel. Callers
// hold h.mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.restaurantID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.restaurantID)
	}
}

// BroadcastToRestaurant queues event for every client in the restaurant's
// room. It drops the event once the hub has stopped.
func (h *Hub) BroadcastToRestaurant(restaurantID uuid.UUID, event Event) {
	select {
	case h.broadcast <- &roomEvent{RestaurantID: restaurantID, Event: event}:
	case <-h.done:
	}
}

// SubscriptionChanged broadcasts a subscription.updated event carrying the
// restaurant id.
func (h *Hub) SubscriptionChanged(restaurantID uuid.UUID) {
	payload, _ := json.Marshal(map[string]string{"restaurant_id": restaurantID.String()})
	h.BroadcastToRestaurant(restaurantID, Event{Type: EventSubscriptionUpdated, Payload: payload})
}

// RoomSize returns the number of clients connected for a restaurant.
func (h *Hub) RoomSize(restaurantID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[restaurantID])
}

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

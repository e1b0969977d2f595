package websocket

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Hub fans ingest activity out to connected observers.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *IngestMessage
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *IngestMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	log.Info().
		Str("remote", client.remote).
		Int("totalClients", len(h.clients)).
		Msg("[WS] Observer connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.send)

	log.Info().
		Str("remote", client.remote).
		Int("totalClients", len(h.clients)).
		Msg("[WS] Observer disconnected")
}

func (h *Hub) broadcastMessage(msg *IngestMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- msg:
		default:
			// Observer buffer full, skip this message
			log.Warn().
				Str("remote", client.remote).
				Msg("[WS] Observer send buffer full, dropping message")
		}
	}
}

// NotifyIngest queues one stored-file announcement; never blocks the
// ingest path.
func (h *Hub) NotifyIngest(album, storedName string, size int64) {
	msg := &IngestMessage{
		Type:  MessageTypeIngest,
		Album: album,
		File:  storedName,
		Size:  size,
		Time:  time.Now().Unix(),
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Warn().Msg("[WS] Broadcast queue full, dropping ingest event")
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

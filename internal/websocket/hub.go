package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is the frame sent to every connected dashboard
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub fans out events to connected websocket clients. Run owns the client
// set; Register, Unregister and Broadcast only hand work to it.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	done       chan struct{}

	writeTimeout time.Duration
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[*websocket.Conn]bool),
		broadcast:    make(chan []byte, 64),
		register:     make(chan *websocket.Conn),
		unregister:   make(chan *websocket.Conn),
		done:         make(chan struct{}),
		writeTimeout: 5 * time.Second,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			log.Println("Hub: Shutdown complete")
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Hub: Client connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Hub: Client disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(h.writeTimeout))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Printf("Hub: Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues an event for every client. Events are dropped when the
// queue is full.
func (h *Hub) Broadcast(event string, payload any) {
	message, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		log.Printf("Hub: Failed to marshal %s event: %v", event, err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		log.Printf("Hub: Warning - broadcast queue full, dropping %s event", event)
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades a viewer connection and keeps it registered until the
// peer goes away
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	connection, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	connection.SetReadLimit(512)
	connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	connection.SetPongHandler(func(appData string) error {
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	h.Register(connection)
	defer h.Unregister(connection)

	for {
		if _, _, err := connection.ReadMessage(); err != nil {
			log.Printf("Viewer disconnected: %v", err)
			return
		}
	}
}

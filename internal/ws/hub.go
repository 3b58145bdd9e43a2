package ws

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Conn adalah subset *websocket.Conn yang dipakai hub.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub memegang registry observer dan melakukan fanout broadcast.
// Delivery best-effort: observer yang write-nya gagal langsung
// di-close dan dikeluarkan dari registry.
type Hub struct {
	clients    map[Conn]uuid.UUID
	Register   chan Conn
	Unregister chan Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[Conn]uuid.UUID),
		Register:   make(chan Conn),
		Unregister: make(chan Conn),
		Broadcast:  make(chan []byte),
	}
}

// Publish mengirim pesan ke semua observer. Memenuhi service.Broadcaster.
func (h *Hub) Publish(message []byte) {
	h.Broadcast <- message
}

// ClientCount melaporkan jumlah observer yang sedang terdaftar.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			id := uuid.New()
			h.mutex.Lock()
			h.clients[conn] = id
			h.mutex.Unlock()
			log.Printf("observer connected: %s", id)

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if id, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				log.Printf("observer disconnected: %s", id)
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn, id := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.clients, conn)
					log.Printf("observer dropped: %s (%v)", id, err)
				}
			}
			h.mutex.Unlock()
		}
	}
}

package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Client represents a WebSocket client subscribed to one booking reference
type Client struct {
	BookingReference string
	Conn             *websocket.Conn
	Send             chan []byte
	Hub              *Hub
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client connected for booking %s", client.BookingReference)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Printf("Client disconnected for booking %s", client.BookingReference)
		}
	}
}

// WebSocketMessage is the envelope for every message sent over the socket
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// BookingStatusUpdate notifies a payment page that the booking changed state
type BookingStatusUpdate struct {
	BookingReference string `json:"bookingReference"`
	BookingStatus    string `json:"bookingStatus"`
	PaymentStatus    string `json:"paymentStatus"`
}

// BroadcastBookingUpdate sends a status update to every client watching the
// given booking reference. Typically the guest's payment page, which closes
// the polling loop the moment the webhook lands.
func (h *Hub) BroadcastBookingUpdate(bookingReference, bookingStatus, paymentStatus string) {
	message := WebSocketMessage{
		Type: "booking_status_update",
		Data: BookingStatusUpdate{
			BookingReference: bookingReference,
			BookingStatus:    bookingStatus,
			PaymentStatus:    paymentStatus,
		},
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling booking status update: %v", err)
		return
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.BookingReference != bookingReference {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Printf("Warning: Could not send to client for booking %s (channel full)", bookingReference)
		}
	}
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles WebSocket connections
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, bookingReference string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		BookingReference: bookingReference,
		Conn:             conn,
		Send:             make(chan []byte, 256),
		Hub:              hub,
	}

	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so close frames and pings are handled.
// Clients only listen on this socket; inbound payloads are ignored.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

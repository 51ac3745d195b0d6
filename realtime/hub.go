package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Subscription narrows the events a client receives. Each set id must equal
// the event's id; an event that does not carry that id is not delivered.
// Types, when non-empty, is an allow-list of event types.
type Subscription struct {
	ProjectID *uint
	FilterID  *uint
	ClipID    *uint
	Types     map[string]bool
}

func (s Subscription) Matches(event Event) bool {
	if len(s.Types) > 0 && !s.Types[event.Type] {
		return false
	}
	return sameID(s.ProjectID, event.ProjectID) &&
		sameID(s.FilterID, event.FilterID) &&
		sameID(s.ClipID, event.ClipID)
}

func sameID(want, got *uint) bool {
	if want == nil {
		return true
	}
	return got != nil && *got == *want
}

// ParseSubscription reads project_id, filter_id, clip_id and a comma
// separated types list from a websocket request's query.
func ParseSubscription(r *http.Request) (Subscription, error) {
	var sub Subscription
	q := r.URL.Query()
	for _, field := range []struct {
		name string
		dst  **uint
	}{
		{"project_id", &sub.ProjectID},
		{"filter_id", &sub.FilterID},
		{"clip_id", &sub.ClipID},
	} {
		raw := q.Get(field.name)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return Subscription{}, fmt.Errorf("%w: invalid %s %q", ErrInvalidRequest, field.name, raw)
		}
		v := uint(id)
		*field.dst = &v
	}
	if raw := q.Get("types"); raw != "" {
		sub.Types = make(map[string]bool)
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				sub.Types[t] = true
			}
		}
	}
	return sub, nil
}

// Client is one websocket connection and the events it asked for
type Client struct {
	conn *websocket.Conn
	sub  Subscription
	send chan []byte
}

type outbound struct {
	event   Event
	payload []byte
}

// Hub routes catalog events to the websocket clients subscribed to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.sub.Matches(msg.event) {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					log.Printf("realtime: dropping slow websocket client")
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with mu held
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// ClientCount returns the number of connected websocket clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues the event for every subscribed client
func (h *Hub) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	encoded, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime: failed to marshal event: %v", err)
		return
	}
	select {
	case h.broadcast <- outbound{event: event, payload: encoded}:
	default:
		log.Printf("realtime: dropping %s event, broadcast channel full", event.Type)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS validates the subscription query, upgrades the connection and
// registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	sub, err := ParseSubscription(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: websocket upgrade error: %v", err)
		return
	}
	client := &Client{conn: conn, sub: sub, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister <- client
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgConnected MessageType = "connected"
	MsgError     MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans funnel events out to the editors watching that funnel
type Hub struct {
	// funnelID -> connections
	editorConns map[string]map[*Connection]struct{}

	mu     sync.RWMutex
	logger *zap.Logger

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// Connection represents a WebSocket connection
type Connection struct {
	FunnelID string
	EditorID string
	Send     chan []byte
	Hub      *Hub
}

// NewConnection creates a connection with a buffered send queue
func NewConnection(hub *Hub, funnelID, editorID string) *Connection {
	return &Connection{
		FunnelID: funnelID,
		EditorID: editorID,
		Send:     make(chan []byte, 256),
		Hub:      hub,
	}
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	FunnelID string
	Message  *Message
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		editorConns: make(map[string]map[*Connection]struct{}),
		logger:      logger,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *BroadcastMessage, 256),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.editorConns[conn.FunnelID] == nil {
				h.editorConns[conn.FunnelID] = make(map[*Connection]struct{})
			}
			h.editorConns[conn.FunnelID][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("editor connected", zap.String("funnelId", conn.FunnelID), zap.String("editorId", conn.EditorID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.editorConns[conn.FunnelID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.editorConns, conn.FunnelID)
					}
					h.logger.Info("editor disconnected", zap.String("funnelId", conn.FunnelID), zap.String("editorId", conn.EditorID))
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.logger.Error("failed to encode broadcast", zap.Error(err))
				continue
			}
			h.mu.RLock()
			for conn := range h.editorConns[msg.FunnelID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for _, conns := range h.editorConns {
				for conn := range conns {
					close(conn.Send)
				}
			}
			h.editorConns = make(map[string]map[*Connection]struct{})
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastToEditors sends an event to every editor of a funnel (implements service.Broadcaster)
func (h *Hub) BroadcastToEditors(funnelID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode event payload", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{
		FunnelID: funnelID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}:
	case <-h.done:
	}
}

// SendError queues an error message for one connection. Connections the hub
// no longer tracks are skipped, since their send queue is already closed.
func (h *Hub) SendError(conn *Connection, reason string) {
	payload, _ := json.Marshal(map[string]string{"error": reason})
	data, _ := json.Marshal(&Message{Type: MsgError, Payload: payload})

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.editorConns[conn.FunnelID][conn]; !ok {
		return
	}
	select {
	case conn.Send <- data:
	default:
	}
}

// EditorCount returns how many editors watch a funnel
func (h *Hub) EditorCount(funnelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.editorConns[funnelID])
}

// Stop closes every connection and waits for the hub loop to exit
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	<-h.stopped
}

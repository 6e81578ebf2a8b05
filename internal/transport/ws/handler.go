package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/model"
	"github.com/junes231/funnel-editor/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

type tokenValidator interface {
	ValidateEditorToken(token string) (*model.EditorClaims, error)
}

type funnelGetter interface {
	Get(ctx context.Context, id, ownerID string) (*model.Funnel, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub     *Hub
	auth    tokenValidator
	funnels funnelGetter
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, auth tokenValidator, funnels funnelGetter, logger *zap.Logger) *Handler {
	return &Handler{
		hub:     hub,
		auth:    auth,
		funnels: funnels,
		logger:  logger,
	}
}

// EditorWS handles GET /v1/ws/funnels/{id}
func (h *Handler) EditorWS(w http.ResponseWriter, r *http.Request) {
	funnelID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateEditorToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if _, err := h.funnels.Get(r.Context(), funnelID, claims.EditorID); err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			http.Error(w, "funnel belongs to another editor", http.StatusForbidden)
		case errors.Is(err, service.ErrFunnelNotFound):
			http.Error(w, "funnel not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to load funnel for websocket", zap.String("funnelId", funnelID), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := NewConnection(h.hub, funnelID, claims.EditorID)
	payload, _ := json.Marshal(map[string]string{"funnelId": funnelID})
	hello, _ := json.Marshal(&Message{Type: MsgConnected, Payload: payload})
	conn.Send <- hello
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.String("funnelId", conn.FunnelID), zap.Error(err))
			}
			break
		}
		h.hub.SendError(conn, "editor connections are receive-only")
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

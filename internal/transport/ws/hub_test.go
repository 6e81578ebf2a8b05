package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/junes231/funnel-editor/internal/model"
	"github.com/junes231/funnel-editor/internal/service"
)

func waitForEditors(t *testing.T, h *Hub, funnelID string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.EditorCount(funnelID) == n }, time.Second, 5*time.Millisecond)
}

func readMessage(t *testing.T, ch <-chan []byte) Message {
	t.Helper()
	select {
	case data, ok := <-ch:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_BroadcastToEditors(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(zap.NewNop())
	defer h.Stop()

	a := NewConnection(h, "funnel-1", "editor_a")
	b := NewConnection(h, "funnel-1", "editor_b")
	other := NewConnection(h, "funnel-2", "editor_a")
	h.Register(a)
	h.Register(b)
	h.Register(other)
	waitForEditors(t, h, "funnel-1", 2)

	h.BroadcastToEditors("funnel-1", service.EventClickRecorded, model.ClickEvent{FunnelID: "funnel-1", QuestionID: "question-0", AnswerID: "a"})

	for _, conn := range []*Connection{a, b} {
		msg := readMessage(t, conn.Send)
		assert.Equal(t, MessageType(service.EventClickRecorded), msg.Type)
		assert.JSONEq(t, `{"funnelId":"funnel-1","questionId":"question-0","answerId":"a"}`, string(msg.Payload))
	}
	assert.Empty(t, other.Send)
}

func TestHub_Unregister(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(zap.NewNop())
	defer h.Stop()

	conn := NewConnection(h, "funnel-1", "editor_a")
	h.Register(conn)
	waitForEditors(t, h, "funnel-1", 1)

	h.Unregister(conn)
	waitForEditors(t, h, "funnel-1", 0)

	_, ok := <-conn.Send
	assert.False(t, ok, "send channel should be closed")

	// a second unregister is a no-op
	h.Unregister(conn)
}

func TestHub_StopClosesConnections(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := NewHub(zap.NewNop())
	conn := NewConnection(h, "funnel-1", "editor_a")
	h.Register(conn)
	waitForEditors(t, h, "funnel-1", 1)

	h.Stop()
	h.Stop()

	_, ok := <-conn.Send
	assert.False(t, ok)

	// calls after Stop must not block
	h.BroadcastToEditors("funnel-1", service.EventFunnelUpdated, nil)
	h.Unregister(conn)
	late := NewConnection(h, "funnel-1", "editor_b")
	h.Register(late)
	_, ok = <-late.Send
	assert.False(t, ok)
}

type stubAuth struct{}

func (stubAuth) ValidateEditorToken(token string) (*model.EditorClaims, error) {
	if !strings.HasPrefix(token, "editor_") {
		return nil, service.ErrInvalidToken
	}
	return &model.EditorClaims{EditorID: token}, nil
}

type stubFunnels map[string]string // funnelID -> owner

func (s stubFunnels) Get(ctx context.Context, id, ownerID string) (*model.Funnel, error) {
	owner, ok := s[id]
	if !ok {
		return nil, service.ErrFunnelNotFound
	}
	if owner != ownerID {
		return nil, service.ErrForbidden
	}
	return &model.Funnel{ID: id, OwnerID: owner}, nil
}

func newWSServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	handler := NewHandler(h, stubAuth{}, stubFunnels{"funnel-1": "editor_a"}, zap.NewNop())
	r := mux.NewRouter()
	r.HandleFunc("/v1/ws/funnels/{id}", handler.EditorWS)
	return httptest.NewServer(r)
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestHandler_EditorWS(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Stop()
	srv := newWSServer(t, h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/v1/ws/funnels/funnel-1?token=editor_a"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, MsgConnected, hello.Type)
	assert.JSONEq(t, `{"funnelId":"funnel-1"}`, string(hello.Payload))

	waitForEditors(t, h, "funnel-1", 1)
	h.BroadcastToEditors("funnel-1", service.EventLeadCaptured, map[string]string{"email": "ann@example.com"})

	var event Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, MessageType(service.EventLeadCaptured), event.Type)
}

func TestHandler_EditorWS_InboundFrameGetsError(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Stop()
	srv := newWSServer(t, h)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/v1/ws/funnels/funnel-1?token=editor_a"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello Message
	require.NoError(t, conn.ReadJSON(&hello))
	waitForEditors(t, h, "funnel-1", 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	var reply Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, MsgError, reply.Type)
	assert.JSONEq(t, `{"error":"editor connections are receive-only"}`, string(reply.Payload))
}

func TestHub_SendErrorSkipsUnknownConnection(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub(zap.NewNop())
	defer h.Stop()

	conn := NewConnection(h, "funnel-1", "editor_a")
	h.SendError(conn, "nope")
	assert.Empty(t, conn.Send)
}

func TestHandler_EditorWS_Rejected(t *testing.T) {
	h := NewHub(zap.NewNop())
	defer h.Stop()
	srv := newWSServer(t, h)
	defer srv.Close()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing token", "/v1/ws/funnels/funnel-1", http.StatusUnauthorized},
		{"bad token", "/v1/ws/funnels/funnel-1?token=nope", http.StatusUnauthorized},
		{"foreign funnel", "/v1/ws/funnels/funnel-1?token=editor_b", http.StatusForbidden},
		{"unknown funnel", "/v1/ws/funnels/funnel-9?token=editor_a", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, tt.path), nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

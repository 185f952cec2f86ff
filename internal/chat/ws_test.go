package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newChatServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/chat/ws", WSHandler(hub))
	r.GET("/chat/history", HistoryHandler(hub))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Clients() == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("clients = %d, want %d", hub.Clients(), n)
}

func TestPingGetsPong(t *testing.T) {
	hub := NewHub(10)
	ws := dial(t, newChatServer(t, hub))

	if err := ws.WriteJSON(map[string]string{"event": "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got pong
	if err := ws.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Event != EventPong || got.Now == 0 {
		t.Fatalf("unexpected pong: %+v", got)
	}
	if len(hub.History()) != 0 {
		t.Fatal("ping should not be recorded in history")
	}
}

func TestMessageBroadcastAndHistory(t *testing.T) {
	hub := NewHub(2)
	srv := newChatServer(t, hub)
	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	if err := a.WriteJSON(map[string]string{"event": "message", "text": "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = b.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Message
	if err := b.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Event != EventMessage || got.Text != "hello" || got.From == "" {
		t.Fatalf("unexpected message: %+v", got)
	}

	// bare text frames are messages too
	if err := a.WriteMessage(websocket.TextMessage, []byte("plain")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.ReadJSON(&got); err != nil || got.Text != "plain" {
		t.Fatalf("plain frame: %+v %v", got, err)
	}
	if err := a.WriteJSON(map[string]string{"event": "message", "text": "third"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.ReadJSON(&got); err != nil || got.Text != "third" {
		t.Fatalf("third: %+v %v", got, err)
	}

	history := hub.History()
	if len(history) != 2 || history[0].Text != "plain" || history[1].Text != "third" {
		t.Fatalf("history not bounded: %+v", history)
	}

	resp, err := http.Get(srv.URL + "/chat/history")
	if err != nil {
		t.Fatalf("history request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d", resp.StatusCode)
	}
}

func TestLeaveRemovesClient(t *testing.T) {
	hub := NewHub(0)
	ws := dial(t, newChatServer(t, hub))
	waitForClients(t, hub, 1)
	_ = ws.Close()
	waitForClients(t, hub, 0)
}

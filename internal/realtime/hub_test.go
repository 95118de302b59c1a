package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	client := &Client{Send: make(chan []byte, 4)}
	hub.Register(client)
	<-client.Send // own presence update

	hub.Broadcast(map[string]any{"type": "history.created", "id": 3})
	var event map[string]any
	if err := json.Unmarshal(<-client.Send, &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event["type"] != "history.created" {
		t.Fatalf("unexpected event %v", event)
	}

	hub.Unregister(client)
	hub.Unregister(client)
	if hub.Count() != 0 {
		t.Fatalf("expected no clients")
	}
	if _, ok := <-client.Send; ok {
		t.Fatalf("expected closed send channel")
	}
}

func TestHubDropsWhenClientIsSlow(t *testing.T) {
	hub := NewHub()
	client := &Client{Send: make(chan []byte, 1)}
	hub.Register(client)
	for i := 0; i < 10; i++ {
		hub.Broadcast(map[string]any{"n": i})
	}
	if len(client.Send) != 1 {
		t.Fatalf("expected full buffer without blocking")
	}
}

func TestServeWSDeliversEvents(t *testing.T) {
	hub := NewHub()
	upgrader := NewUpgrader("")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(w, r, hub, upgrader)
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read presence: %v", err)
	}
	hub.Broadcast(map[string]any{"type": "history.created", "id": 1})
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	if !strings.Contains(string(message), "history.created") {
		t.Fatalf("unexpected message %s", message)
	}
}

func TestUpgraderOrigin(t *testing.T) {
	upgrader := NewUpgrader("https://app.example.com")
	req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	if upgrader.CheckOrigin(req) {
		t.Fatalf("expected foreign origin to be rejected")
	}
	req.Header.Set("Origin", "https://app.example.com")
	if !upgrader.CheckOrigin(req) {
		t.Fatalf("expected configured origin to be accepted")
	}
}

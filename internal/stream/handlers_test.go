package stream

import (
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
)

func startWSServer(t *testing.T, hub *Hub) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterRoutes(app, hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return ln.Addr().String()
}

func TestWebsocketReceivesBroadcast(t *testing.T) {
	hub := NewHub(nil)
	addr := startWSServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/user-1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// wait for the server side to register the client
	deadline := time.After(2 * time.Second)
	for {
		hub.mu.RLock()
		registered := len(hub.clients["user-1"]) == 1
		hub.mu.RUnlock()
		if registered {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("client never registered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	hub.Broadcast("user-1", []byte(`{"type":"completion_approved","trail_id":"trail-1"}`))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != `{"type":"completion_approved","trail_id":"trail-1"}` {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestWebsocketDisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil)
	addr := startWSServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/user-1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	deadline := time.After(2 * time.Second)
	for {
		hub.mu.RLock()
		gone := len(hub.clients["user-1"]) == 0
		hub.mu.RUnlock()
		if gone {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("client still registered after disconnect")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

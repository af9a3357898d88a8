package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/track-editor/game/editor"
	"github.com/wricardo/track-editor/game/track"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func testSnapshot() *editor.Snapshot {
	start := track.Coord{X: 0, Y: 0}
	return &editor.Snapshot{
		ConfigName: "default",
		Tiles: []track.Tile{
			{X: 0, Y: 0, From: track.Left, To: track.Right},
			{X: 1, Y: 0, From: track.Left, To: track.Right},
		},
		TileCount: 2,
		Start:     &start,
		Camera:    editor.Camera{Zoom: 1},
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub register channels are nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if hub.ClientCount("TEST-SESSION") != 1 {
		t.Errorf("Expected 1 client in session, got %d", hub.ClientCount("test-session"))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}

	// the send channel is closed exactly once
	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed")
	}
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub()
	client1 := newTestClient(hub, "multi")
	client2 := newTestClient(hub, "multi")

	hub.registerClient(client1)
	hub.registerClient(client2)
	if hub.ClientCount("multi") != 2 {
		t.Errorf("Expected 2 clients in session, got %d", hub.ClientCount("multi"))
	}

	hub.unregisterClient(client1)
	if hub.ClientCount("multi") != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", hub.ClientCount("multi"))
	}
	if !hub.sessions["multi"][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastTrackUpdate(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "ab12")
	other := newTestClient(hub, "cd34")
	hub.registerClient(client)
	hub.registerClient(other)

	go hub.Run()
	defer hub.Stop()

	result := &editor.Result{Kind: editor.CmdPlace}
	hub.BroadcastTrackUpdate("AB12", testSnapshot(), result)

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.Event != EventTrackUpdate {
			t.Errorf("Expected event %q, got %q", EventTrackUpdate, message.Event)
		}
		if message.Snapshot == nil || message.Snapshot.TileCount != 2 {
			t.Fatalf("Snapshot not correctly transmitted: %+v", message.Snapshot)
		}
		if message.Snapshot.Tiles[1].X != 1 || message.Snapshot.Tiles[1].From != track.Left {
			t.Errorf("Unexpected tile %+v", message.Snapshot.Tiles[1])
		}
		if message.Result == nil || message.Result.Kind != editor.CmdPlace {
			t.Errorf("Expected place result, got %+v", message.Result)
		}
	case <-time.After(time.Second):
		t.Fatal("No message received within timeout")
	}

	select {
	case <-other.send:
		t.Error("Clients of other sessions should not receive the update")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()

	hub.BroadcastEvent("event-test", EventSessionClosed, "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" {
			t.Errorf("Expected sessionID 'event-test', got %s", message.SessionID)
		}
		if message.Event != EventSessionClosed {
			t.Errorf("Expected event %q, got %s", EventSessionClosed, message.Event)
		}
		if message.Data != "test-data" {
			t.Errorf("Expected data 'test-data', got %v", message.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message received within timeout")
	}
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "stop")
	hub.registerClient(client)

	finished := make(chan struct{})
	go func() {
		hub.Run()
		close(finished)
	}()
	hub.Stop()
	hub.Stop()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	if hub.ClientCount("stop") != 0 {
		t.Error("Expected clients to be dropped on stop")
	}
}

func newWSServer(hub *Hub) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
}

func waitForClients(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount(sessionID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients in %s, got %d", want, sessionID, hub.ClientCount(sessionID))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	server := newWSServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=ws-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitForClients(t, hub, "ws-test", 1)
	conn.Close()
	waitForClients(t, hub, "ws-test", 0)
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	server := newWSServer(hub)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=msg-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, "msg-test", 1)
	hub.BroadcastTrackUpdate("msg-test", testSnapshot(), nil)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, messageData, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	var message Message
	if err := json.Unmarshal(messageData, &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if message.SessionID != "msg-test" {
		t.Errorf("Expected sessionID 'msg-test', got %s", message.SessionID)
	}
	if message.Snapshot == nil || message.Snapshot.Start == nil || *message.Snapshot.Start != (track.Coord{}) {
		t.Errorf("Expected start at origin, got %+v", message.Snapshot)
	}
}

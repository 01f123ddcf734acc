package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/benthanh-pos/api/internal/auth"
	"github.com/benthanh-pos/api/internal/enum"
)

const testSecret = "ws-test-secret"

func dialWS(t *testing.T, server *httptest.Server, token string) (*websocket.Conn, *http.Response) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil && resp == nil {
		t.Fatalf("dial: %v", err)
	}
	return conn, resp
}

func TestServeWSRejectsMissingToken(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, testSecret, w, r)
	}))
	defer server.Close()

	conn, resp := dialWS(t, server, "")
	if conn != nil {
		conn.Close()
		t.Fatal("expected dial to fail without token")
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestServeWSRejectsBadToken(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, testSecret, w, r)
	}))
	defer server.Close()

	conn, resp := dialWS(t, server, "not-a-jwt")
	if conn != nil {
		conn.Close()
		t.Fatal("expected dial to fail with bad token")
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, testSecret, w, r)
	}))
	defer server.Close()

	token, err := auth.GenerateToken(testSecret, uuid.New(), "Alice", enum.AuthLevelStaff)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _ := dialWS(t, server, token)
		if conn == nil {
			t.Fatal("dial failed")
		}
		defer conn.Close()
		conns = append(conns, conn)
	}

	// Registration goes through the hub's channel; give the loop a beat.
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(NewEvent(EventOrderChanged, map[string]string{"table_id": "t1"}))

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %d read: %v", i, err)
		}
		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			t.Fatalf("client %d unmarshal: %v", i, err)
		}
		if event.Type != EventOrderChanged {
			t.Errorf("client %d type = %q, want %q", i, event.Type, EventOrderChanged)
		}
	}
}

func TestNewEventMarshalsPayload(t *testing.T) {
	event := NewEvent(EventNotification, map[string]int{"n": 1})
	if string(event.Payload) != `{"n":1}` {
		t.Errorf("payload = %s", event.Payload)
	}
}

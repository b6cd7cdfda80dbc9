package broadcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newStreamServer(t *testing.T, registry *Registry) *httptest.Server {
	t.Helper()
	srv, _ := newStreamServerWithKeepalive(t, registry, DefaultKeepalive)
	return srv
}

// newStreamServerWithKeepalive also reports each return from the serve loop
func newStreamServerWithKeepalive(t *testing.T, registry *Registry, keepalive Keepalive) (*httptest.Server, <-chan struct{}) {
	t.Helper()
	exits := make(chan struct{}, 16)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ServeConnWithKeepalive(registry, conn, keepalive)
		exits <- struct{}{}
	}))
	t.Cleanup(srv.Close)
	return srv, exits
}

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func waitForExit(t *testing.T, exits <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-exits:
	case <-time.After(3 * time.Second):
		t.Fatalf("serve loop still running after %s", what)
	}
}

func waitForLen(t *testing.T, r *Registry, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for r.Len() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, got %d", want, r.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketSubscriberLifecycle(t *testing.T) {
	registry := NewRegistry(time.Second)
	srv := newStreamServer(t, registry)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()
	waitForLen(t, registry, 1)

	// inbound data is ignored
	if err := client.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if n := registry.Broadcast(context.Background(), []byte(`{"type":"status"}`)); n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, msg, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if mt != websocket.TextMessage || string(msg) != `{"type":"status"}` {
		t.Fatalf("unexpected message %d %s", mt, msg)
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	if err := client.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second)); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	waitForLen(t, registry, 0)
}

func TestWebSocketConnSendAfterClose(t *testing.T) {
	upgraded := make(chan *WebSocketConn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		upgraded <- NewWebSocketConn(conn)
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	conn := <-upgraded
	if conn.State() != StateOpen {
		t.Fatalf("expected open, got %s", conn.State())
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if conn.State() != StateClosed {
		t.Fatalf("expected closed, got %s", conn.State())
	}
	if err := conn.Send(context.Background(), []byte("x")); err != ErrConnClosed {
		t.Fatalf("expected ErrConnClosed, got %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}

func TestStalledSubscriberIsDisconnected(t *testing.T) {
	registry := NewRegistry(50 * time.Millisecond)
	srv, exits := newStreamServerWithKeepalive(t, registry, DefaultKeepalive)

	// the client never reads, so the socket buffers fill up
	dialStream(t, srv)
	waitForLen(t, registry, 1)

	msg := []byte(strings.Repeat("x", 1<<20))
	for i := 0; registry.Len() > 0; i++ {
		if i == 200 {
			t.Fatal("stalled subscriber was never dropped")
		}
		registry.Broadcast(context.Background(), msg)
	}

	waitForExit(t, exits, "the subscriber was dropped")
}

func TestOversizedInboundFrameDropsSubscriber(t *testing.T) {
	registry := NewRegistry(time.Second)
	srv, exits := newStreamServerWithKeepalive(t, registry, DefaultKeepalive)

	client := dialStream(t, srv)
	waitForLen(t, registry, 1)

	if err := client.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 4*maxInboundMessageSize))); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	waitForExit(t, exits, "an oversized frame")
	waitForLen(t, registry, 0)

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := client.ReadMessage(); err == nil {
		t.Fatal("expected the server to close the connection")
	}
}

func TestUnresponsivePeerTimesOut(t *testing.T) {
	registry := NewRegistry(time.Second)
	keepalive := Keepalive{PongWait: 300 * time.Millisecond, PingPeriod: 50 * time.Millisecond}
	srv, exits := newStreamServerWithKeepalive(t, registry, keepalive)

	// reading lets gorilla answer pings
	live := dialStream(t, srv)
	go func() {
		for {
			if _, _, err := live.ReadMessage(); err != nil {
				return
			}
		}
	}()
	dialStream(t, srv)
	waitForLen(t, registry, 2)

	waitForExit(t, exits, "the pong deadline passed")
	time.Sleep(2 * keepalive.PongWait)
	if registry.Len() != 1 {
		t.Fatalf("expected only the responsive subscriber left, got %d", registry.Len())
	}
}

func TestSendAbortsOnCancel(t *testing.T) {
	upgraded := make(chan *WebSocketConn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		upgraded <- NewWebSocketConn(conn)
	}))
	defer srv.Close()

	dialStream(t, srv)
	conn := <-upgraded

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	err := conn.Send(ctx, []byte(strings.Repeat("x", 64<<20)))
	if err == nil {
		t.Fatal("expected the cancelled send to fail")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("send returned %v after cancellation", elapsed)
	}
	if conn.State() != StateClosed {
		t.Fatalf("expected closed after aborted send, got %s", conn.State())
	}
}

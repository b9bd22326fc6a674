package consoleproxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockConsoleServer simulates a console behind a WebSocket bridge.
type mockConsoleServer struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	received [][]byte
	conn     *websocket.Conn
	closed   chan struct{}
	onConn   func()
}

func newMockConsoleServer() *mockConsoleServer {
	return &mockConsoleServer{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		closed:   make(chan struct{}),
	}
}

func (s *mockConsoleServer) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conn = conn
	onConn := s.onConn
	s.mu.Unlock()

	if onConn != nil {
		onConn()
	}

	defer close(s.closed)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.received = append(s.received, data)
		s.mu.Unlock()
	}
}

func (s *mockConsoleServer) sendToClient(data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.TextMessage, []byte(data))
	}
}

func (s *mockConsoleServer) getReceived() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([][]byte, len(s.received))
	copy(cp, s.received)
	return cp
}

func setupMockConsole(t *testing.T) (*mockConsoleServer, string) {
	t.Helper()
	mock := newMockConsoleServer()
	server := httptest.NewServer(http.HandlerFunc(mock.handler))
	t.Cleanup(server.Close)
	return mock, "ws" + strings.TrimPrefix(server.URL, "http") + "/console"
}

// waitEvent polls tr until an event of the given kind arrives.
func waitEvent(t *testing.T, tr transport, kind eventKind) event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ev := tr.service()
		if ev.kind == kind {
			return ev
		}
		if ev.kind == eventNone {
			time.Sleep(time.Millisecond)
		}
	}
	t.Fatalf("timeout waiting for event kind %d", kind)
	return event{}
}

func TestWSTransport_ServiceNonBlocking(t *testing.T) {
	tr := newWSTransport("ws://127.0.0.1:1/never")
	start := time.Now()
	ev := tr.service()
	if ev.kind != eventNone {
		t.Errorf("service() kind = %d, want eventNone", ev.kind)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("service() should not block")
	}
}

func TestWSTransport_ConnectReceiveSend(t *testing.T) {
	mock, wsURL := setupMockConsole(t)

	tr := newWSTransport(wsURL)
	defer tr.close()

	if err := tr.connect(); err != nil {
		t.Fatalf("connect() error: %v", err)
	}
	waitEvent(t, tr, eventConnect)

	mock.sendToClient(`{"type":"log","data":{"level":"info","where":"ws","msg":"hi"}}`)
	ev := waitEvent(t, tr, eventReceive)
	if !strings.Contains(string(ev.payload), `"msg":"hi"`) {
		t.Errorf("payload = %q", ev.payload)
	}

	if err := tr.send(0, []byte("{\"name\":\"ping\",\"args\":{}}\x00")); err != nil {
		t.Fatalf("send() error: %v", err)
	}
	tr.flush()

	deadline := time.Now().Add(5 * time.Second)
	for len(mock.getReceived()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for server to receive")
		}
		time.Sleep(time.Millisecond)
	}
	if got := string(mock.getReceived()[0]); got != "{\"name\":\"ping\",\"args\":{}}\x00" {
		t.Errorf("server received %q", got)
	}
}

func TestWSTransport_GracefulDisconnect(t *testing.T) {
	mock, wsURL := setupMockConsole(t)

	tr := newWSTransport(wsURL)
	defer tr.close()

	tr.connect()
	waitEvent(t, tr, eventConnect)

	tr.disconnect()
	waitEvent(t, tr, eventDisconnect)

	select {
	case <-mock.closed:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not observe the close")
	}
}

func TestWSTransport_DialFailureReportsDisconnect(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	server.Close()

	tr := newWSTransport(wsURL)
	defer tr.close()

	tr.connect()
	waitEvent(t, tr, eventDisconnect)
}

func TestWSTransport_SendBeforeConnect(t *testing.T) {
	tr := newWSTransport("ws://127.0.0.1:1/never")
	if err := tr.send(0, []byte("x")); err != ErrNotConnected {
		t.Errorf("send() error = %v, want ErrNotConnected", err)
	}
}

func TestClient_OverWebSocket(t *testing.T) {
	mock, wsURL := setupMockConsole(t)
	mock.onConn = func() {
		mock.sendToClient(`{"type":"log","data":{"level":"warning","where":"renderer","msg":"slow frame"}}`)
	}

	c, err := NewClient(Config{Transport: TransportWebSocket, URL: wsURL})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}

	logs := make(chan string, 1)
	c.OnLog(func(level, where, msg string) {
		logs <- level + "|" + where + "|" + msg
	})
	c.OnConnect(func() {
		c.Send("renderer.resize", Args{"w": 800, "h": 600})
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case line := <-logs:
		if line != "warning|renderer|slow frame" {
			t.Errorf("log line = %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for log line")
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(mock.getReceived()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for command")
		}
		time.Sleep(time.Millisecond)
	}
	got := string(mock.getReceived()[0])
	if !strings.HasPrefix(got, `{"name":"renderer.resize","args":{`) || !strings.HasSuffix(got, "}\x00") {
		t.Errorf("command payload = %q", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return")
	}
	if c.Connected() {
		t.Error("client should be disconnected after Run returns")
	}
}

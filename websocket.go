package consoleproxy

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsEventQueueDepth  = 256
	wsHandshakeTimeout = 10 * time.Second
	wsCloseTimeout     = 3 * time.Second
)

// wsTransport implements transport over a WebSocket bridge in front of the
// console. Reads happen on a goroutine and are queued, so service keeps the
// zero-timeout polling contract of the ENet transport.
type wsTransport struct {
	wsURL string

	conn *websocket.Conn
	mu   sync.Mutex // protects conn and writes

	events chan event
	done   chan struct{}
	once   sync.Once
}

func newWSTransport(wsURL string) *wsTransport {
	return &wsTransport{
		wsURL:  wsURL,
		events: make(chan event, wsEventQueueDepth),
		done:   make(chan struct{}),
	}
}

func (t *wsTransport) connect() error {
	go t.dial()
	return nil
}

func (t *wsTransport) dial() {
	ctx, cancel := context.WithTimeout(context.Background(), wsHandshakeTimeout)
	defer cancel()

	dialer := websocket.Dialer{
		HandshakeTimeout: wsHandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, t.wsURL, nil)
	if err != nil {
		// ENet reports a failed connection attempt as a disconnect; do the same.
		t.push(event{kind: eventDisconnect})
		return
	}

	t.mu.Lock()
	select {
	case <-t.done:
		t.mu.Unlock()
		conn.Close()
		return
	default:
	}
	t.conn = conn
	t.mu.Unlock()

	t.push(event{kind: eventConnect})
	t.readLoop(conn)
}

func (t *wsTransport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.push(event{kind: eventDisconnect})
			return
		}
		t.push(event{kind: eventReceive, payload: data})
	}
}

func (t *wsTransport) push(ev event) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}

func (t *wsTransport) service() event {
	select {
	case ev := <-t.events:
		return ev
	default:
		return event{kind: eventNone}
	}
}

func (t *wsTransport) send(channel uint8, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ErrNotConnected
	}
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

// flush is a no-op: every WriteMessage is already on the wire.
func (t *wsTransport) flush() {}

func (t *wsTransport) disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsCloseTimeout))
	// The read loop observes the peer's close frame, or this deadline.
	_ = t.conn.SetReadDeadline(time.Now().Add(wsCloseTimeout))
}

func (t *wsTransport) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		t.conn.Close()
	}
}

func (t *wsTransport) close() error {
	t.once.Do(func() {
		close(t.done)
	})

	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (t *wsTransport) String() string {
	return t.wsURL
}

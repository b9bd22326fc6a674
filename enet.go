package consoleproxy

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/codecat/go-enet"
)

var enetInit sync.Once

// enetTransport implements transport on top of an ENet client host with a
// single peer slot and a single channel.
type enetTransport struct {
	address string
	port    int

	host enet.Host
	peer enet.Peer

	// poll services the host once with a zero timeout.
	poll func() event

	// pending holds events pulled off the host by flush, returned by
	// service before the host is polled again.
	pending []event
}

func newENetTransport(address string, port int) *enetTransport {
	return &enetTransport{
		address: address,
		port:    port,
	}
}

func (t *enetTransport) connect() error {
	enetInit.Do(func() {
		enet.Initialize()
	})

	host, err := enet.NewHost(nil, 1, 1, 0, 0)
	if err != nil {
		return &ConnectionError{Addr: t.String(), Reason: fmt.Sprintf("create host: %v", err)}
	}

	peer, err := host.Connect(enet.NewAddress(t.address, uint16(t.port)), 1, 0)
	if err != nil {
		host.Destroy()
		return &ConnectionError{Addr: t.String(), Reason: err.Error()}
	}

	t.host = host
	t.peer = peer
	t.poll = func() event {
		return translateEvent(host.Service(0))
	}
	return nil
}

func (t *enetTransport) service() event {
	if len(t.pending) > 0 {
		ev := t.pending[0]
		t.pending = t.pending[1:]
		return ev
	}
	if t.poll == nil {
		return event{kind: eventNone}
	}
	return t.poll()
}

func translateEvent(ev enet.Event) event {
	switch ev.GetType() {
	case enet.EventConnect:
		return event{kind: eventConnect}
	case enet.EventDisconnect:
		return event{kind: eventDisconnect}
	case enet.EventReceive:
		packet := ev.GetPacket()
		defer packet.Destroy()
		// Packet memory belongs to ENet; copy before destroying it.
		payload := append([]byte(nil), packet.GetData()...)
		return event{kind: eventReceive, payload: payload}
	default:
		return event{kind: eventNone}
	}
}

func (t *enetTransport) send(channel uint8, payload []byte) error {
	if t.peer == nil {
		return ErrNotConnected
	}
	return t.peer.SendBytes(payload, channel, enet.PacketFlagReliable)
}

// flush services the host once with a zero timeout, which writes every
// queued outgoing command to the socket. The binding has no enet_host_flush.
// An event surfaced by that call is kept for the next service.
func (t *enetTransport) flush() {
	if t.poll == nil {
		return
	}
	if ev := t.poll(); ev.kind != eventNone {
		t.pending = append(t.pending, ev)
	}
}

func (t *enetTransport) disconnect() {
	if t.peer != nil {
		t.peer.Disconnect(0)
	}
}

func (t *enetTransport) reset() {
	if t.peer == nil {
		return
	}
	t.peer.DisconnectNow(0)
	t.peer = nil
}

func (t *enetTransport) close() error {
	if t.host != nil {
		t.host.Destroy()
		t.host = nil
	}
	t.peer = nil
	t.poll = nil
	t.pending = nil
	return nil
}

func (t *enetTransport) String() string {
	return net.JoinHostPort(t.address, strconv.Itoa(t.port))
}

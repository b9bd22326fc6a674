package consoleproxy

// eventKind is the kind of event returned by a transport service call.
type eventKind int

const (
	eventNone eventKind = iota
	eventConnect
	eventDisconnect
	eventReceive
)

// event is one entry of the transport's event queue.
type event struct {
	kind    eventKind
	payload []byte // set for eventReceive
}

// transport is the internal interface for the reliable-datagram link to the
// console. The default implementation is ENet (enet.go); consoles behind a
// WebSocket bridge use websocket.go. None of the methods block on the network.
type transport interface {
	// connect issues a connection request to the console and returns at once.
	// Success or failure is reported later through service.
	connect() error

	// service returns the next pending event, or eventNone.
	service() event

	// send queues payload as a reliable packet on the given channel.
	send(channel uint8, payload []byte) error

	// flush pushes all queued outbound packets onto the wire.
	flush()

	// disconnect starts a graceful disconnect. Completion is reported as an
	// eventDisconnect from service.
	disconnect()

	// reset drops the peer without waiting for the handshake.
	reset()

	// close releases the local socket.
	close() error

	// String names the remote endpoint for logs.
	String() string
}

package consoleproxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Client is a proxy for one connection to an engine console.
//
// A single consumer drives the connection, either by calling Tick from a
// host loop or by running Run on its own goroutine. Handler registration,
// Send and RequestDisconnect may be called from other goroutines.
type Client struct {
	cfg       Config
	transport transport
	registry  *handlerRegistry
	logger    *slog.Logger
	onError   ErrorHandler
	sessionID string

	mu           sync.Mutex // serializes transport access and guards callbacks
	connectFn    func()
	disconnectFn func()

	connected           atomic.Bool
	disconnectRequested atomic.Bool
	draining            atomic.Bool
	closed              atomic.Bool
}

// NewClient creates a client and issues a non-blocking connection request
// to the console. The connection is established later, while the client is
// being polled; use Connected to observe it.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:       resolved,
		registry:  newHandlerRegistry(),
		logger:    slog.New(slog.DiscardHandler),
		sessionID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = resolved.newTransport()
	}
	c.logger = c.logger.With("session", c.sessionID)
	if c.onError == nil {
		c.onError = LogErrors(c.logger)
	}

	c.logger.Info("connecting to console", "transport", resolved.Transport, "addr", c.transport.String())
	if err := c.transport.connect(); err != nil {
		c.closed.Store(true)
		return nil, err
	}

	return c, nil
}

// Handle registers a handler for the given message type. Several handlers
// may be registered for the same type; they run in registration order.
func (c *Client) Handle(msgType string, fn HandlerFunc) error {
	return c.registry.register(msgType, fn)
}

// OnLog registers a subscriber for console "log" messages. Subscribers run
// after the generic handlers registered for "log".
func (c *Client) OnLog(fn LogFunc) error {
	return c.registry.registerLog(fn)
}

// OnConnect registers a callback invoked when the console accepts the connection.
func (c *Client) OnConnect(fn func()) {
	c.mu.Lock()
	c.connectFn = fn
	c.mu.Unlock()
}

// OnDisconnect registers a callback invoked when the connection ends.
func (c *Client) OnDisconnect(fn func()) {
	c.mu.Lock()
	c.disconnectFn = fn
	c.mu.Unlock()
}

// SessionID returns the identifier attached to this client's logs and errors.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Connected reports whether a connect event has been observed and no
// disconnect has followed it.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// DisconnectRequested reports whether a disconnect is pending.
func (c *Client) DisconnectRequested() bool {
	return c.disconnectRequested.Load()
}

// RequestDisconnect asks the polling consumer to close the connection
// gracefully. It returns at once; the handshake runs on a later Tick or in Run.
func (c *Client) RequestDisconnect() {
	c.disconnectRequested.Store(true)
}

// Send serializes a command and sends it to the console as a reliable
// packet, flushing it immediately. While not connected, or once the
// disconnect handshake has started, the command is dropped and Send
// returns nil.
func (c *Client) Send(name string, args Args) error {
	if !c.connected.Load() || c.draining.Load() {
		return nil
	}

	payload, err := encodeCommand(name, args)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() || !c.connected.Load() || c.draining.Load() {
		return nil
	}
	if err := c.transport.send(c.cfg.ChannelID, payload); err != nil {
		return fmt.Errorf("send command %q: %w", name, err)
	}
	c.transport.flush()

	c.logger.Debug("command sent", "name", name, "bytes", len(payload))
	return nil
}

// Tick performs one non-blocking step: a poll of the transport, or the
// disconnect handshake once RequestDisconnect has been called. It always
// reports true so it can be installed directly as a host frame callback.
func (c *Client) Tick() bool {
	if c.disconnectRequested.Load() {
		c.drainDisconnect()
	} else {
		c.pollOnce()
	}
	return true
}

// Run drives the connection until RequestDisconnect is called or ctx is
// cancelled, then disconnects gracefully. Idle polls back off between
// IdleBackoffMin and IdleBackoffMax.
func (c *Client) Run(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	stop := context.AfterFunc(ctx, c.RequestDisconnect)
	defer stop()

	c.logger.Debug("run loop started", "types", c.registry.types())

	idle := newIdleBackoff(c.cfg.IdleBackoffMin, c.cfg.IdleBackoffMax)
	for !c.disconnectRequested.Load() {
		if c.pollOnce() {
			idle.active()
			continue
		}
		if d := idle.wait(); d > 0 {
			time.Sleep(d)
		}
	}

	c.drainDisconnect()
	c.logger.Debug("run loop stopped")
	return nil
}

// pollOnce services the transport once and reports whether an event was handled.
func (c *Client) pollOnce() bool {
	if c.closed.Load() {
		return false
	}

	c.mu.Lock()
	ev := c.transport.service()
	connectFn, disconnectFn := c.connectFn, c.disconnectFn
	c.mu.Unlock()

	switch ev.kind {
	case eventConnect:
		c.connected.Store(true)
		c.logger.Info("connected to console", "addr", c.transport.String())
		if connectFn != nil {
			connectFn()
		}
	case eventDisconnect:
		c.connected.Store(false)
		c.logger.Info("disconnected from console", "addr", c.transport.String())
		if disconnectFn != nil {
			disconnectFn()
		}
	case eventReceive:
		_ = c.Dispatch(ev.payload)
	default:
		return false
	}
	return true
}

// drainDisconnect performs the graceful disconnect handshake if connected,
// then releases the transport. After it returns the client is closed.
func (c *Client) drainDisconnect() {
	if c.closed.Load() {
		c.disconnectRequested.Store(false)
		return
	}

	c.draining.Store(true)
	defer c.draining.Store(false)

	c.mu.Lock()
	wasConnected := c.connected.Load()
	if wasConnected {
		c.logger.Info("disconnecting from console", "addr", c.transport.String())
		c.transport.disconnect()
		c.awaitDisconnect()
		c.connected.Store(false)
	}
	if err := c.transport.close(); err != nil {
		c.logger.Warn("close transport", "error", err)
	}
	c.closed.Store(true)
	disconnectFn := c.disconnectFn
	c.mu.Unlock()

	c.disconnectRequested.Store(false)
	if wasConnected && disconnectFn != nil {
		disconnectFn()
	}
}

// awaitDisconnect polls until the peer acknowledges the disconnect or the
// drain timeout expires. Packets that arrive meanwhile are dropped.
// Must be called with c.mu held.
func (c *Client) awaitDisconnect() {
	deadline := time.Now().Add(c.cfg.DrainTimeout)
	for {
		ev := c.transport.service()
		switch ev.kind {
		case eventDisconnect:
			c.logger.Info("disconnected from console", "addr", c.transport.String())
			return
		case eventReceive:
			c.logger.Debug("dropping packet received while disconnecting", "bytes", len(ev.payload))
			continue
		case eventNone:
			if time.Now().After(deadline) {
				c.logger.Warn("disconnect not acknowledged, resetting peer", "timeout", c.cfg.DrainTimeout)
				c.transport.reset()
				return
			}
			time.Sleep(time.Millisecond)
		}
	}
}

// Dispatch decodes one packet payload and routes it to the handlers
// registered for its type, then to the log subscribers for "log" messages.
// Decode and handler failures are isolated: each one is reported to the
// ErrorHandler, remaining handlers still run, and all are returned joined.
func (c *Client) Dispatch(payload []byte) error {
	msg, err := decodeMessage(payload)
	if err != nil {
		c.report(SDKError{Kind: ErrParseFailure, Raw: payload, Cause: err})
		return err
	}

	var errs []error
	for _, fn := range c.registry.lookup(msg.Type) {
		if err := invoke(fn, msg.Data); err != nil {
			kind := ErrHandlerFailure
			var pe *panicError
			if errors.As(err, &pe) {
				kind = ErrHandlerPanic
			}
			c.report(SDKError{Kind: kind, Type: msg.Type, Cause: err})
			errs = append(errs, err)
		}
	}

	if msg.Type == LogType {
		if err := c.dispatchLog(msg.Data); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *Client) dispatchLog(data Data) error {
	level, where, text, err := logFields(data)
	if err != nil {
		c.report(SDKError{Kind: ErrMissingField, Type: LogType, Cause: err})
		return err
	}

	var errs []error
	for _, fn := range c.registry.logSubscribers() {
		err := invoke(func(Data) error {
			fn(level, where, text)
			return nil
		}, data)
		if err != nil {
			c.report(SDKError{Kind: ErrHandlerPanic, Type: LogType, Cause: err})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Client) report(e SDKError) {
	e.Session = c.sessionID
	e.Timestamp = time.Now()
	c.onError(e)
}

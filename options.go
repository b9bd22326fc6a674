package consoleproxy

import "log/slog"

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger used for connection lifecycle and
// dispatch diagnostics. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithErrorHandler sets the handler for errors raised while servicing the
// connection (malformed packets, failing handlers). The default logs them
// through the client's logger.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(c *Client) {
		c.onError = fn
	}
}

// withTransport replaces the transport built from Config.
func withTransport(t transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

package consoleproxy

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Sentinel errors for client state and envelope decoding.
var (
	ErrNotConnected       = errors.New("client is not connected")
	ErrClientClosed       = errors.New("client is closed")
	ErrInvalidUTF8        = errors.New("payload is not valid UTF-8")
	ErrMissingEnvelopeKey = errors.New("envelope key missing")
)

// DecodeError reports an inbound packet that could not be decoded into a
// {"type", "data"} envelope.
type DecodeError struct {
	Raw   []byte
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode inbound message: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// MissingFieldError reports a field absent from a message's data object.
type MissingFieldError struct {
	Type  string // message type, if known
	Field string
}

func (e *MissingFieldError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("message %q: missing field %q", e.Type, e.Field)
	}
	return fmt.Sprintf("missing field %q", e.Field)
}

// ConnectionError represents a failure to create the transport or reach the console.
type ConnectionError struct {
	Addr   string
	Reason string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error [%s]: %s", e.Addr, e.Reason)
}

// ErrorKind classifies errors raised while servicing the connection, which
// have no direct caller to return to.
type ErrorKind int

const (
	ErrParseFailure   ErrorKind = iota // inbound packet couldn't be decoded
	ErrMissingField                    // "log" message lacks level/where/msg
	ErrHandlerFailure                  // handler returned an error
	ErrHandlerPanic                    // handler panicked
)

var errorKindNames = [...]string{
	ErrParseFailure:   "ErrParseFailure",
	ErrMissingField:   "ErrMissingField",
	ErrHandlerFailure: "ErrHandlerFailure",
	ErrHandlerPanic:   "ErrHandlerPanic",
}

func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// SDKError is an error raised on the polling path. These errors are routed
// to the ErrorHandler instead of stopping the loop.
type SDKError struct {
	Kind      ErrorKind
	Session   string
	Type      string // message type, if known
	Cause     error
	Raw       []byte // raw payload (for parse failures)
	Timestamp time.Time
}

func (e *SDKError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v (session=%s type=%s)", e.Kind, e.Cause, e.Session, e.Type)
	}
	return fmt.Sprintf("%s (session=%s type=%s)", e.Kind, e.Session, e.Type)
}

func (e *SDKError) Unwrap() error {
	return e.Cause
}

// ErrorHandler is called for every error raised while servicing the connection.
type ErrorHandler func(SDKError)

// LogErrors returns an ErrorHandler that logs all errors to the given logger.
func LogErrors(logger *slog.Logger) ErrorHandler {
	return func(e SDKError) {
		logger.Warn("console proxy error",
			"kind", e.Kind.String(),
			"session", e.Session,
			"type", e.Type,
			"error", e.Cause,
		)
	}
}

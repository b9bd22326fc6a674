package consoleproxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// LogType is the message type carrying console log lines.
const LogType = "log"

// Data is the payload of an inbound message. Values are kept as raw JSON
// and extracted explicitly by the consumer.
type Data map[string]json.RawMessage

// Has reports whether key is present.
func (d Data) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Decode unmarshals the value stored under key into v.
func (d Data) Decode(key string, v any) error {
	raw, ok := d[key]
	if !ok {
		return &MissingFieldError{Field: key}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	return nil
}

// String returns the string stored under key.
func (d Data) String(key string) (string, error) {
	var s string
	err := d.Decode(key, &s)
	return s, err
}

// Int returns the integer stored under key.
func (d Data) Int(key string) (int64, error) {
	var n int64
	err := d.Decode(key, &n)
	return n, err
}

// Float64 returns the number stored under key.
func (d Data) Float64(key string) (float64, error) {
	var f float64
	err := d.Decode(key, &f)
	return f, err
}

// Bool returns the boolean stored under key.
func (d Data) Bool(key string) (bool, error) {
	var b bool
	err := d.Decode(key, &b)
	return b, err
}

// Text returns the value under key as text: strings are unquoted, other
// primitives are returned in their JSON form.
func (d Data) Text(key string) (string, error) {
	raw, ok := d[key]
	if !ok {
		return "", &MissingFieldError{Field: key}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	return string(bytes.TrimSpace(raw)), nil
}

// Unmarshal decodes the whole data object into v, typically a struct.
func (d Data) Unmarshal(v any) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// InboundMessage is a decoded packet received from the console.
type InboundMessage struct {
	Type string
	Data Data
}

// Args are the named arguments of an outbound command.
type Args map[string]any

// Command is an outbound console command.
type Command struct {
	Name string `json:"name"`
	Args Args   `json:"args"`
}

// inboundEnvelope is the wire format of packets sent by the console.
type inboundEnvelope struct {
	Type *string         `json:"type"`
	Data json.RawMessage `json:"data"`
}

// decodeMessage parses one packet payload into an InboundMessage.
// Trailing NUL terminators are tolerated.
func decodeMessage(payload []byte) (*InboundMessage, error) {
	body := bytes.TrimRight(payload, "\x00")
	if !utf8.Valid(body) {
		return nil, &DecodeError{Raw: payload, Cause: ErrInvalidUTF8}
	}

	var env inboundEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Raw: payload, Cause: fmt.Errorf("parse envelope: %w", err)}
	}
	if env.Type == nil {
		return nil, &DecodeError{Raw: payload, Cause: fmt.Errorf("%w: %q", ErrMissingEnvelopeKey, "type")}
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil, &DecodeError{Raw: payload, Cause: fmt.Errorf("%w: %q", ErrMissingEnvelopeKey, "data")}
	}

	var data Data
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &DecodeError{Raw: payload, Cause: fmt.Errorf("parse data: %w", err)}
	}
	if data == nil {
		data = Data{}
	}

	return &InboundMessage{Type: *env.Type, Data: data}, nil
}

// encodeCommand serializes a command as JSON followed by a NUL terminator.
func encodeCommand(name string, args Args) ([]byte, error) {
	if args == nil {
		args = Args{}
	}
	b, err := json.Marshal(Command{Name: name, Args: args})
	if err != nil {
		return nil, fmt.Errorf("marshal command %q: %w", name, err)
	}
	return append(b, 0), nil
}

// logFields extracts the level/where/msg triple of a "log" message.
func logFields(data Data) (level, where, msg string, err error) {
	fields := [3]string{"level", "where", "msg"}
	var out [3]string
	for i, f := range fields {
		v, err := data.Text(f)
		if err != nil {
			return "", "", "", &MissingFieldError{Type: LogType, Field: f}
		}
		out[i] = v
	}
	return out[0], out[1], out[2], nil
}

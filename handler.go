package consoleproxy

import (
	"errors"
	"fmt"
	"sync"
)

// HandlerFunc is the signature for message handlers. It receives the data
// object of every inbound message of the type it was registered for.
type HandlerFunc func(data Data) error

// LogFunc receives console log lines: level, origin and message text.
type LogFunc func(level, where, msg string)

type handlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc // message type → handlers in registration order
	onLog    []LogFunc
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{
		handlers: make(map[string][]HandlerFunc),
	}
}

func (r *handlerRegistry) register(msgType string, fn HandlerFunc) error {
	if fn == nil {
		return errors.New("handler must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = append(r.handlers[msgType], fn)
	return nil
}

func (r *handlerRegistry) registerLog(fn LogFunc) error {
	if fn == nil {
		return errors.New("log subscriber must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLog = append(r.onLog, fn)
	return nil
}

// lookup returns a snapshot of the handlers for msgType so they can run
// without holding the lock.
func (r *handlerRegistry) lookup(msgType string) []HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hs := r.handlers[msgType]
	if len(hs) == 0 {
		return nil
	}
	cp := make([]HandlerFunc, len(hs))
	copy(cp, hs)
	return cp
}

func (r *handlerRegistry) logSubscribers() []LogFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make([]LogFunc, len(r.onLog))
	copy(cp, r.onLog)
	return cp
}

// types returns the message types that have at least one handler.
func (r *handlerRegistry) types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}

// panicError carries the value recovered from a panicking handler.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.value)
}

// invoke runs fn, converting a panic into a *panicError.
func invoke(fn HandlerFunc, data Data) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p}
		}
	}()
	return fn(data)
}

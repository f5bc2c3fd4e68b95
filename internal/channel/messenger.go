package channel

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry is an in-process BinaryMessenger.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]BinaryMessageHandler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]BinaryMessageHandler)}
}

func (r *Registry) SetMessageHandler(channel string, handler BinaryMessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handler == nil {
		delete(r.handlers, channel)
		return
	}
	r.handlers[channel] = handler
}

// Send runs the channel handler and waits for its reply or for ctx to end.
func (r *Registry) Send(ctx context.Context, channel string, message []byte) ([]byte, error) {
	r.mu.RLock()
	handler, ok := r.handlers[channel]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", channel, ErrNoHandler)
	}

	replies := make(chan []byte, 1)
	var once sync.Once
	handler(ctx, message, func(reply []byte) {
		once.Do(func() { replies <- reply })
	})

	// synchronous handlers have already replied
	select {
	case reply := <-replies:
		return reply, nil
	default:
	}

	select {
	case reply := <-replies:
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Channels returns the names of channels with a registered handler, sorted.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasHandler reports whether channel has a registered handler.
func (r *Registry) HasHandler(channel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[channel]
	return ok
}

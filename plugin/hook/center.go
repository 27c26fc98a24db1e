package hook

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ErrInterrupt is returned by a handler to veto the event. Handlers after it
// do not run.
var ErrInterrupt = errors.New("hook interrupted")

// HookFn handles one event. The returned data is passed to the next handler.
type HookFn func(ctx context.Context, event string, data interface{}) (interface{}, error)

type hookEntry struct {
	priority int
	name     string
	fn       HookFn
}

// Option configures a HookCenter.
type Option func(*HookCenter)

// WithLogger reports handler failures and recovered panics.
func WithLogger(l *zap.Logger) Option {
	return func(hc *HookCenter) { hc.logger = l }
}

// HookCenter dispatches named events to prioritised handlers.
type HookCenter struct {
	mu     sync.RWMutex
	hooks  map[string][]*hookEntry
	logger *zap.Logger
}

func NewHookCenter(opts ...Option) *HookCenter {
	hc := &HookCenter{hooks: make(map[string][]*hookEntry), logger: zap.NewNop()}
	for _, o := range opts {
		o(hc)
	}
	return hc
}

// Register adds fn under name for event. Lower priorities run first and
// equal priorities keep registration order. Registering a name twice for the
// same event replaces the earlier handler.
func (hc *HookCenter) Register(event string, priority int, name string, fn HookFn) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	entries := without(hc.hooks[event], name)
	entries = append(entries, &hookEntry{priority: priority, name: name, fn: fn})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	hc.hooks[event] = entries
}

func (hc *HookCenter) Unregister(event, name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.hooks[event] = without(hc.hooks[event], name)
}

// UnregisterAll drops name from every event.
func (hc *HookCenter) UnregisterAll(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	for event, entries := range hc.hooks {
		hc.hooks[event] = without(entries, name)
	}
}

// Registered lists handler names for event in run order.
func (hc *HookCenter) Registered(event string) []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, 0, len(hc.hooks[event]))
	for _, e := range hc.hooks[event] {
		names = append(names, e.name)
	}
	return names
}

func without(entries []*hookEntry, name string) []*hookEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.name != name {
			out = append(out, e)
		}
	}
	return out
}

// Trigger runs the handlers of event in order, threading data through them.
// It stops at the first ErrInterrupt and returns it. Other errors and panics
// are logged and the chain continues with the data it had.
func (hc *HookCenter) Trigger(ctx context.Context, event string, data interface{}) (interface{}, error) {
	hc.mu.RLock()
	entries := append([]*hookEntry(nil), hc.hooks[event]...)
	hc.mu.RUnlock()

	for _, e := range entries {
		out, err := hc.call(ctx, e, event, data)
		if errors.Is(err, ErrInterrupt) {
			return out, err
		}
		if err != nil {
			hc.logger.Warn("hook failed",
				zap.String("event", event),
				zap.String("hook", e.name),
				zap.Error(err))
			continue
		}
		data = out
	}
	return data, nil
}

func (hc *HookCenter) call(ctx context.Context, e *hookEntry, event string, data interface{}) (out interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = data, errors.Newf("hook %s panicked: %s", e.name, fmt.Sprint(r))
		}
	}()
	return e.fn(ctx, event, data)
}

package exchange

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Factory constructs an adapter from its settings.
type Factory func(Settings) (Adapter, error)

// Settings are the per-exchange values a factory may use.
type Settings struct {
	RestURL  string        // Empty selects the adapter's default endpoint
	Timeout  time.Duration // HTTP timeout, zero keeps the adapter default
	PageSize int           // Nominal page size override, zero keeps the default
	Logger   *slog.Logger
}

// Registry maps exchange codes to factories. It is populated at startup
// with the closed set of adapters compiled into the binary.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under code. Registering a code twice panics.
func (r *Registry) Register(code string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = strings.ToUpper(code)
	if _, dup := r.factories[code]; dup {
		panic("exchange: duplicate registration of " + code)
	}
	r.factories[code] = f
}

// New builds the adapter registered under code.
func (r *Registry) New(code string, s Settings) (Adapter, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToUpper(code)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown exchange %q (known: %s)", code, strings.Join(r.Codes(), ", "))
	}
	return f(s)
}

// Codes returns the registered exchange codes, sorted.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.factories))
	for c := range r.factories {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

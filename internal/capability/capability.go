// Package capability models optional external tool integrations (news,
// data lookups) as named, swappable clients. Implementations are chosen
// at construction time from configuration; a stub stands in when a real
// backend or its credentials are unavailable.
package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client is one independent external capability.
type Client interface {
	// Name identifies the capability for connect/call/disconnect by name.
	Name() string
	// Connect establishes the backend connection.
	Connect(ctx context.Context) error
	// Call invokes a named tool with arguments and returns its raw result.
	Call(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error)
	// Tools lists the tool names this capability serves.
	Tools() []string
	// Close releases the backend connection.
	Close() error
}

// Registry tracks connected capabilities. It is constructed explicitly
// and injected into whatever owns the pipeline's lifecycle; there is no
// process-wide instance.
type Registry struct {
	mu      sync.Mutex
	clients map[string]Client
	logger  zerolog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]Client),
		logger:  log.With().Str("component", "capability_registry").Logger(),
	}
}

// Connect connects a client and registers it. Each capability is
// independent: a failure here never blocks other capabilities, so the
// caller should log and move on.
func (r *Registry) Connect(ctx context.Context, c Client) error {
	if err := c.Connect(ctx); err != nil {
		r.logger.Warn().Err(err).Str("capability", c.Name()).Msg("Capability connect failed")
		return fmt.Errorf("connecting capability %q: %w", c.Name(), err)
	}

	r.mu.Lock()
	r.clients[c.Name()] = c
	r.mu.Unlock()

	r.logger.Info().Str("capability", c.Name()).Strs("tools", c.Tools()).Msg("Capability connected")
	return nil
}

// Call invokes a tool on a connected capability by name.
func (r *Registry) Call(ctx context.Context, name, tool string, args map[string]any) (json.RawMessage, error) {
	r.mu.Lock()
	c, ok := r.clients[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("capability %q not connected", name)
	}
	return c.Call(ctx, tool, args)
}

// Names returns the connected capability names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Disconnect closes and removes one capability by name.
func (r *Registry) Disconnect(name string) error {
	r.mu.Lock()
	c, ok := r.clients[name]
	delete(r.clients, name)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return c.Close()
}

// Shutdown closes all connected capabilities.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	clients := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[string]Client)
	r.mu.Unlock()

	for _, c := range clients {
		if err := c.Close(); err != nil {
			r.logger.Warn().Err(err).Str("capability", c.Name()).Msg("Capability close failed")
		}
	}
}

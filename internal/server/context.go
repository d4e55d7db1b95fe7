package server

import (
	"context"
	"sync"

	"github.com/teemow/morgenmcp/internal/morgen"
	"github.com/teemow/morgenmcp/internal/query"
)

// ServerContext holds the shared state of a running MCP server: the
// Morgen client (which owns the response cache) and the query service
// built on top of it. Tool handlers receive it at registration time.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	client   *morgen.Client
	queries  *query.Service
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context wrapping client and queries.
func NewServerContext(ctx context.Context, client *morgen.Client, queries *query.Service) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		client:  client,
		queries: queries,
	}
}

// Context returns the server lifetime context. It is canceled on
// Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Client returns the Morgen client.
func (sc *ServerContext) Client() *morgen.Client {
	return sc.client
}

// Queries returns the query service.
func (sc *ServerContext) Queries() *query.Service {
	return sc.queries
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and releases the Morgen client,
// stopping the cache janitor. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	if sc.client != nil {
		sc.client.Close()
	}
	return nil
}

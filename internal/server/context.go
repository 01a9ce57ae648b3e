package server

import (
	"context"
	"sync"

	"outlookmcp/internal/auth"
	"outlookmcp/internal/config"
	"outlookmcp/internal/graph"
	"outlookmcp/internal/instrumentation"
)

// ServerContext holds the shared state for the MCP server.
type ServerContext struct {
	ctx          context.Context
	cancel       context.CancelFunc
	registry     *config.Registry
	authManager  *auth.Manager
	graphClients map[string]*graph.Client // Maps account name to Graph client
	graphOpts    []graph.ClientOption
	metrics      *instrumentation.Metrics
	readOnly     bool
	mu           sync.RWMutex
	shutdown     bool
}

// ServerContextOption configures a ServerContext.
type ServerContextOption func(*ServerContext)

// WithReadOnly disables tools that modify mailbox or calendar state.
func WithReadOnly(readOnly bool) ServerContextOption {
	return func(sc *ServerContext) {
		sc.readOnly = readOnly
	}
}

// WithGraphClientOptions sets options applied to every Graph client the
// context creates. Used in tests to point clients at a fake endpoint.
func WithGraphClientOptions(opts ...graph.ClientOption) ServerContextOption {
	return func(sc *ServerContext) {
		sc.graphOpts = opts
	}
}

// NewServerContext creates a new server context. Graph clients are
// created lazily per account on first use.
func NewServerContext(ctx context.Context, registry *config.Registry, authManager *auth.Manager, opts ...ServerContextOption) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		registry:     registry,
		authManager:  authManager,
		graphClients: make(map[string]*graph.Client),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Registry returns the account registry.
func (sc *ServerContext) Registry() *config.Registry {
	return sc.registry
}

// AuthManager returns the authentication manager.
func (sc *ServerContext) AuthManager() *auth.Manager {
	return sc.authManager
}

// ReadOnly reports whether write tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// GraphClientForAccount returns the Graph client for a specific account,
// creating and caching it on first use. The client resolves its token
// through the auth manager on every request, so it is safe to create
// before the account has logged in.
func (sc *ServerContext) GraphClientForAccount(account string) *graph.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.graphClients[account]; ok {
		return client
	}

	token := func(ctx context.Context) (string, bool) {
		return sc.authManager.AccessToken(ctx, account)
	}
	client := graph.NewClient(account, token, sc.graphOpts...)
	if sc.metrics != nil {
		client.SetMetrics(sc.metrics)
	}
	sc.graphClients[account] = client
	return client
}

// SetMetrics sets the metrics recorder for tool and downstream API
// instrumentation. Already-created Graph clients pick it up as well.
func (sc *ServerContext) SetMetrics(metrics *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
	if metrics == nil {
		return
	}
	for _, client := range sc.graphClients {
		client.SetMetrics(metrics)
	}
}

// Metrics returns the metrics recorder, or nil when instrumentation is
// not configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

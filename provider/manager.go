package provider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/semanticarchitectures/multi-agent-collab/internal/schema"
	"github.com/semanticarchitectures/multi-agent-collab/logging"
	"github.com/semanticarchitectures/multi-agent-collab/resilience"
)

// DefaultHandshakeTimeout bounds a provider's launch plus handshake.
const DefaultHandshakeTimeout = 10 * time.Second

// Options configures a Manager.
type Options struct {
	// Logger receives provider lifecycle and call logs.
	Logger logging.Logger
	// Breaker tunes the per-provider circuit breakers.
	Breaker resilience.BreakerConfig
	// HandshakeTimeout bounds Connect.
	HandshakeTimeout time.Duration
	// Dial builds the transport for a provider. Defaults to launching a
	// StdioClient subprocess.
	Dial func(ctx context.Context, name string, spec LaunchSpec) (Client, error)
}

// WithLogger sets the manager's logger.
func WithLogger(logger logging.Logger) func(*Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithBreakerConfig tunes the per-provider circuit breakers.
func WithBreakerConfig(cfg resilience.BreakerConfig) func(*Options) {
	return func(o *Options) { o.Breaker = cfg }
}

// WithHandshakeTimeout bounds provider launch plus handshake.
func WithHandshakeTimeout(d time.Duration) func(*Options) {
	return func(o *Options) { o.HandshakeTimeout = d }
}

// WithDial overrides how provider transports are built.
func WithDial(dial func(ctx context.Context, name string, spec LaunchSpec) (Client, error)) func(*Options) {
	return func(o *Options) { o.Dial = dial }
}

type providerConn struct {
	client Client
	tools  []ToolDefinition
	byName map[string]ToolDefinition
}

// Manager owns a set of connected tool providers and routes tool calls to
// the provider that declared the tool. Each provider gets its own circuit
// breaker; a call executes at most once per CallTool. Callers who want
// connection retries wrap Connect in resilience.Retry themselves.
type Manager struct {
	logger           logging.Logger
	breakers         *resilience.Registry
	callTimeout      time.Duration
	handshakeTimeout time.Duration
	dial             func(ctx context.Context, name string, spec LaunchSpec) (Client, error)

	mu        sync.RWMutex
	providers map[string]*providerConn
	owners    map[string]string
	closed    bool
}

// NewManager creates an empty manager. Providers are added with Connect.
func NewManager(optFns ...func(*Options)) *Manager {
	opts := Options{
		Logger:           logging.NoOpLogger{},
		Breaker:          resilience.DefaultBreakerConfig,
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Dial == nil {
		opts.Dial = func(_ context.Context, name string, spec LaunchSpec) (Client, error) {
			return NewStdioClient(name, spec, opts.Logger)
		}
	}

	cfg := opts.Breaker
	if cfg.Timeout <= 0 {
		cfg.Timeout = resilience.DefaultBreakerConfig.Timeout
	}
	return &Manager{
		logger:           opts.Logger,
		breakers:         resilience.NewRegistry(cfg, opts.Logger),
		callTimeout:      cfg.Timeout,
		handshakeTimeout: opts.HandshakeTimeout,
		dial:             opts.Dial,
		providers:        make(map[string]*providerConn),
		owners:           make(map[string]string),
	}
}

// Connect launches the named provider, performs the handshake, and registers
// its tools. On any failure the provider is torn down and nothing is
// registered. Connecting an already connected name is an error.
func (m *Manager) Connect(ctx context.Context, name string, spec LaunchSpec) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return &ConnectionError{Provider: name, Cause: errors.New("manager is closed")}
	}
	if _, exists := m.providers[name]; exists {
		m.mu.Unlock()
		return &ConnectionError{Provider: name, Cause: errors.New("already connected")}
	}
	m.mu.Unlock()

	hsCtx, cancel := context.WithTimeout(ctx, m.handshakeTimeout)
	defer cancel()

	client, err := m.dial(hsCtx, name, spec)
	if err != nil {
		return &ConnectionError{Provider: name, Cause: err, NotFound: isLaunchNotFound(err)}
	}

	if err := client.Initialize(hsCtx); err != nil {
		_ = client.Close()
		return &ConnectionError{Provider: name, Cause: fmt.Errorf("handshake: %w", err)}
	}

	tools, err := client.ListTools(hsCtx)
	if err != nil {
		_ = client.Close()
		return &ConnectionError{Provider: name, Cause: fmt.Errorf("list tools: %w", err)}
	}

	conn := &providerConn{
		client: client,
		tools:  tools,
		byName: make(map[string]ToolDefinition, len(tools)),
	}
	for _, t := range tools {
		conn.byName[t.Name] = t
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		_ = client.Close()
		return &ConnectionError{Provider: name, Cause: errors.New("manager is closed")}
	}
	m.providers[name] = conn
	for _, t := range tools {
		if owner, taken := m.owners[t.Name]; taken {
			m.logger.Warn("tool name conflict, keeping first owner",
				"tool", t.Name, "owner", owner, "ignored", name)
			continue
		}
		m.owners[t.Name] = name
	}

	m.logger.Info("provider connected", "provider", name, "tools", len(tools))
	return nil
}

func isLaunchNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

// Reconnect tears down any existing connection for the name and connects
// fresh, replacing the provider's cached tools wholesale.
func (m *Manager) Reconnect(ctx context.Context, name string, spec LaunchSpec) error {
	m.mu.Lock()
	_, exists := m.providers[name]
	m.mu.Unlock()
	if exists {
		if err := m.Disconnect(name); err != nil {
			m.logger.Warn("reconnect: disconnect failed", "provider", name, "error", err)
		}
	}
	return m.Connect(ctx, name, spec)
}

// Disconnect shuts down one provider and unregisters its tools. The
// provider's breaker is dropped with it.
func (m *Manager) Disconnect(name string) error {
	m.mu.Lock()
	conn, ok := m.providers[name]
	if !ok {
		m.mu.Unlock()
		return &ConnectionError{Provider: name, Cause: errors.New("not connected")}
	}
	delete(m.providers, name)
	for tool, owner := range m.owners {
		if owner == name {
			delete(m.owners, tool)
		}
	}
	m.mu.Unlock()

	m.breakers.Remove(name)
	m.logger.Info("provider disconnected", "provider", name)
	return conn.client.Close()
}

// ProviderNames returns the connected provider names, sorted.
func (m *Manager) ProviderNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns every registered tool with its owning provider, sorted by
// tool name.
func (m *Manager) Tools() []ToolInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ToolInfo, 0, len(m.owners))
	for toolName, owner := range m.owners {
		def := m.providers[owner].byName[toolName]
		out = append(out, ToolInfo{ToolDefinition: def, Provider: owner})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ProviderTools returns the tools declared by one provider.
func (m *Manager) ProviderTools(name string) ([]ToolDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.providers[name]
	if !ok {
		return nil, &ConnectionError{Provider: name, Cause: errors.New("not connected")}
	}
	tools := make([]ToolDefinition, len(conn.tools))
	copy(tools, conn.tools)
	return tools, nil
}

// Lookup resolves a tool name to its definition and owning provider.
func (m *Manager) Lookup(tool string) (ToolInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owner, ok := m.owners[tool]
	if !ok {
		return ToolInfo{}, &ToolNotFoundError{Tool: tool}
	}
	return ToolInfo{ToolDefinition: m.providers[owner].byName[tool], Provider: owner}, nil
}

// CallOptions tunes a single tool call.
type CallOptions struct {
	// Provider routes the call to the named provider instead of the
	// tool ownership index.
	Provider string
	// Timeout overrides the per-call timeout for this call.
	Timeout time.Duration
}

// WithProvider routes one call to an explicitly named provider.
func WithProvider(name string) func(*CallOptions) {
	return func(o *CallOptions) { o.Provider = name }
}

// WithCallTimeout sets the timeout for one call.
func WithCallTimeout(d time.Duration) func(*CallOptions) {
	return func(o *CallOptions) { o.Timeout = d }
}

// CallTool validates args against the tool's schema, then executes the call
// through the owning provider's circuit breaker. The provider is invoked at
// most once; resilience beyond the breaker is the caller's business.
func (m *Manager) CallTool(ctx context.Context, tool string, args map[string]any, optFns ...func(*CallOptions)) (string, error) {
	var co CallOptions
	for _, fn := range optFns {
		fn(&co)
	}

	var info ToolInfo
	var err error
	if co.Provider != "" {
		info, err = m.lookupIn(co.Provider, tool)
	} else {
		info, err = m.Lookup(tool)
	}
	if err != nil {
		return "", err
	}
	if err := schema.Validate(args, info.InputSchema); err != nil {
		return "", fmt.Errorf("tool %q: %w", tool, err)
	}

	m.mu.RLock()
	conn, ok := m.providers[info.Provider]
	m.mu.RUnlock()
	if !ok {
		return "", &ToolNotFoundError{Tool: tool}
	}

	timeout := co.Timeout
	if timeout <= 0 {
		timeout = m.callTimeout
	}

	breaker := m.breakers.Get(info.Provider)
	start := time.Now()

	var result string
	err = breaker.ExecuteWithTimeout(ctx, timeout, func(ctx context.Context) error {
		out, callErr := conn.client.CallTool(ctx, tool, args)
		if callErr != nil {
			return callErr
		}
		result = out
		return nil
	})

	m.logger.Debug("tool call finished",
		"tool", tool, "provider", info.Provider,
		"duration", time.Since(start), "error", err)

	if err != nil {
		if resilience.IsBreakerOpen(err) {
			return "", err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &ToolTimeoutError{Tool: tool, Provider: info.Provider, Timeout: timeout}
		}
		return "", &ToolExecutionError{Tool: tool, Provider: info.Provider, Cause: err}
	}
	return result, nil
}

// lookupIn resolves a tool inside one named provider's cache.
func (m *Manager) lookupIn(providerName, tool string) (ToolInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.providers[providerName]
	if !ok {
		return ToolInfo{}, &ConnectionError{Provider: providerName, Cause: errors.New("not connected")}
	}
	def, ok := conn.byName[tool]
	if !ok {
		return ToolInfo{}, &ToolNotFoundError{Tool: tool}
	}
	return ToolInfo{ToolDefinition: def, Provider: providerName}, nil
}

// BreakerStats exposes the state of every provider breaker.
func (m *Manager) BreakerStats() map[string]resilience.BreakerStats {
	return m.breakers.Stats()
}

// Close shuts down every provider. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	conns := make(map[string]*providerConn, len(m.providers))
	for name, conn := range m.providers {
		conns[name] = conn
	}
	m.providers = make(map[string]*providerConn)
	m.owners = make(map[string]string)
	m.mu.Unlock()

	var firstErr error
	for name, conn := range conns {
		if err := conn.client.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close provider %q: %w", name, err)
		}
	}
	return firstErr
}

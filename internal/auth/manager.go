package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"outlookmcp/internal/config"
	"outlookmcp/internal/logging"
	"outlookmcp/internal/tokencache"
)

// Scopes is the fixed permission set requested for every account.
// offline_access is required for Azure AD to issue a refresh token.
var Scopes = []string{
	"offline_access",
	"User.Read",
	"Mail.Read",
	"Mail.ReadWrite",
	"Mail.Send",
	"Calendars.Read",
	"Calendars.ReadWrite",
}

// LoginTimeout is the fixed deadline for an interactive login flow.
const LoginTimeout = 5 * time.Minute

// exchangeTimeout bounds the code-for-token exchange during callback
// handling. Independent of the browser connection lifetime.
const exchangeTimeout = 30 * time.Second

var (
	// ErrMissingAuthCode indicates the redirect callback carried no
	// authorization code.
	ErrMissingAuthCode = errors.New("authorization callback carried no code")

	// ErrAuthenticationFailed indicates the provider rejected the token
	// exchange.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrLoginTimeout indicates no callback arrived within LoginTimeout.
	ErrLoginTimeout = errors.New("interactive login timed out")
)

// MetricsRecorder receives authentication events for observability.
// Implemented by instrumentation.Metrics; nil-safe via SetMetrics.
type MetricsRecorder interface {
	RecordOAuthAuth(ctx context.Context, result string)
	RecordOAuthTokenRefresh(ctx context.Context, result string)
}

// Manager owns one OAuth2 client configuration per configured account and
// mediates all token acquisition. It is safe for concurrent use.
type Manager struct {
	registry    *config.Registry
	store       *tokencache.Store
	configs     map[string]*oauth2.Config
	pending     *flowTable
	port        int
	logger      *slog.Logger
	metrics     MetricsRecorder
	loginDur    time.Duration
	openBrowser func(url string) error
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used by the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEndpoint overrides the provider endpoint for every account. Used in
// tests to point at a fake token server.
func WithEndpoint(endpoint oauth2.Endpoint) ManagerOption {
	return func(m *Manager) {
		for _, conf := range m.configs {
			conf.Endpoint = endpoint
		}
	}
}

// WithBrowserOpener replaces how authorization URLs are opened.
func WithBrowserOpener(open func(url string) error) ManagerOption {
	return func(m *Manager) {
		m.openBrowser = open
	}
}

// WithLoginTimeout overrides the interactive login deadline. Used in tests.
func WithLoginTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.loginDur = d
	}
}

// NewManager builds a manager for every account in the registry, sharing
// the server's redirect URI.
func NewManager(reg *config.Registry, store *tokencache.Store, server config.ServerConfig, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry:    reg,
		store:       store,
		configs:     make(map[string]*oauth2.Config, reg.Len()),
		pending:     newFlowTable(),
		port:        server.Port,
		logger:      slog.Default(),
		loginDur:    LoginTimeout,
		openBrowser: browser.OpenURL,
	}

	for _, name := range reg.List() {
		acc, _ := reg.Get(name)
		m.configs[name] = &oauth2.Config{
			ClientID:     acc.ClientID,
			ClientSecret: acc.ClientSecret,
			Endpoint:     microsoft.AzureADEndpoint(acc.TenantID),
			RedirectURL:  server.RedirectURI,
			Scopes:       Scopes,
		}
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetMetrics attaches a metrics recorder. Safe to leave unset.
func (m *Manager) SetMetrics(rec MetricsRecorder) {
	m.metrics = rec
}

// AccessToken returns a valid access token for the account, or false when
// none is available. A cached unexpired token is returned without any
// network I/O. An expired record with a refresh token triggers exactly one
// silent refresh, persisted on success. Failures are logged, never
// returned: absence is the error channel here.
func (m *Manager) AccessToken(ctx context.Context, account string) (string, bool) {
	conf, ok := m.configs[account]
	if !ok {
		m.logger.Warn("access token requested for unknown account",
			logging.Account(account))
		return "", false
	}

	rec, ok := m.store.Get(account)
	if !ok {
		return "", false
	}

	if rec.Valid() {
		return rec.AccessToken, true
	}

	if rec.RefreshToken == "" {
		return "", false
	}

	// Expiry in the past forces the token source to refresh immediately.
	ts := conf.TokenSource(ctx, &oauth2.Token{
		RefreshToken: rec.RefreshToken,
		Expiry:       time.Unix(1, 0),
	})
	tok, err := ts.Token()
	if err != nil {
		m.logger.Warn("silent token refresh failed",
			logging.Account(account), logging.Err(err))
		m.recordRefresh(ctx, "failure")
		return "", false
	}

	if err := m.persistToken(account, tok, rec.RefreshToken); err != nil {
		m.logger.Warn("failed to persist refreshed token",
			logging.Account(account), logging.Err(err))
	}
	m.logger.Debug("silent token refresh succeeded",
		logging.Account(account),
		slog.String("access_token", logging.SanitizeToken(tok.AccessToken)),
		slog.Time("expires_on", tok.Expiry))
	m.recordRefresh(ctx, "success")
	return tok.AccessToken, true
}

// HasSession reports whether the account has a cached token record,
// valid or refreshable. No network I/O is performed.
func (m *Manager) HasSession(account string) bool {
	rec, ok := m.store.Get(account)
	return ok && (rec.Valid() || rec.RefreshToken != "")
}

// Login is one in-flight interactive login. Wait blocks until the flow
// settles via callback, timeout or context cancellation.
type Login struct {
	// AuthURL is the provider authorization URL, surfaced so the user can
	// visit it manually if the browser could not be opened.
	AuthURL string

	result <-chan LoginResult
}

// Wait blocks for the login outcome.
func (l *Login) Wait(ctx context.Context) LoginResult {
	select {
	case <-ctx.Done():
		return LoginResult{Err: ctx.Err()}
	case res := <-l.result:
		return res
	}
}

// StartLogin begins an interactive authorization-code flow for the
// account. It binds the one-shot callback listener on the configured port;
// a second login while the port is bound fails immediately. The flow
// settles within LoginTimeout.
func (m *Manager) StartLogin(ctx context.Context, account string) (*Login, error) {
	conf, ok := m.configs[account]
	if !ok {
		return nil, fmt.Errorf("%w: %q", config.ErrAccountNotFound, account)
	}

	// The nonce keeps concurrent or rapidly retried logins for the same
	// account from colliding on their callbacks.
	state := account + "/" + uuid.NewString()
	flow := m.pending.add(state, account)

	srv, err := newCallbackServer(m.port, m.callbackHandler())
	if err != nil {
		m.pending.remove(state)
		return nil, err
	}

	authURL := conf.AuthCodeURL(state)

	go func() {
		defer srv.Shutdown()
		select {
		case <-flow.settled:
		case <-time.After(m.loginDur):
			m.pending.remove(state)
			flow.complete(LoginResult{Account: account, Err: ErrLoginTimeout})
			m.recordAuth(context.Background(), "failure")
		case <-ctx.Done():
			m.pending.remove(state)
			flow.complete(LoginResult{Account: account, Err: ctx.Err()})
		}
	}()

	if err := m.openBrowser(authURL); err != nil {
		m.logger.Info("could not open browser, visit the URL manually",
			logging.Account(account), logging.Err(err))
	}

	m.logger.Info("interactive login started",
		logging.Account(account), slog.String("listener", srv.Addr()))

	return &Login{AuthURL: authURL, result: flow.ch}, nil
}

// callbackHandler serves the OAuth redirect. Unknown or repeated state
// values are acknowledged but otherwise ignored.
func (m *Manager) callbackHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		state := q.Get("state")

		flow, ok := m.pending.take(state)
		if !ok {
			// Stray or duplicate callback; nothing to resolve.
			writeSuccessPage(w)
			return
		}

		if errParam := q.Get("error"); errParam != "" {
			desc := q.Get("error_description")
			err := fmt.Errorf("%w: %s: %s", ErrAuthenticationFailed, errParam, desc)
			flow.complete(LoginResult{Account: flow.account, Err: err})
			m.recordAuth(r.Context(), "failure")
			writeErrorPage(w, errParam+": "+desc)
			return
		}

		code := q.Get("code")
		if code == "" {
			flow.complete(LoginResult{Account: flow.account, Err: ErrMissingAuthCode})
			m.recordAuth(r.Context(), "failure")
			writeErrorPage(w, "authorization code missing in query string")
			return
		}

		res := m.finishLogin(flow.account, code)
		flow.complete(res)
		if res.Err != nil {
			m.recordAuth(r.Context(), "failure")
			writeErrorPage(w, res.Err.Error())
			return
		}
		m.recordAuth(r.Context(), "success")
		writeSuccessPage(w)
	})
}

// finishLogin exchanges the authorization code and persists the resulting
// token record.
func (m *Manager) finishLogin(account, code string) LoginResult {
	conf := m.configs[account]

	ctx, cancel := context.WithTimeout(context.Background(), exchangeTimeout)
	defer cancel()

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		m.logger.Warn("token exchange failed",
			logging.Account(account), logging.Err(err))
		return LoginResult{
			Account: account,
			Err:     fmt.Errorf("%w: %v", ErrAuthenticationFailed, err),
		}
	}

	if err := m.persistToken(account, tok, ""); err != nil {
		m.logger.Warn("failed to persist token",
			logging.Account(account), logging.Err(err))
	}

	identity := displayIdentity(tok)
	if identity == "" {
		identity = account
	}

	m.logger.Info("interactive login completed",
		logging.Account(account), logging.UserHash(identity))

	return LoginResult{Account: account, Identity: identity}
}

// persistToken writes the token to the cache, keeping the previous refresh
// token when the provider did not rotate it.
func (m *Manager) persistToken(account string, tok *oauth2.Token, previousRefresh string) error {
	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	return m.store.Put(account, tokencache.Record{
		AccessToken:  tok.AccessToken,
		ExpiresOn:    tok.Expiry,
		RefreshToken: refresh,
	})
}

// Logout deletes the cached token for one account. Removing an account
// that has no cached token is a no-op.
func (m *Manager) Logout(account string) error {
	if _, err := m.registry.Get(account); err != nil {
		return err
	}
	return m.store.Delete(account)
}

// LogoutAll deletes every cached token.
func (m *Manager) LogoutAll() error {
	return m.store.DeleteAll()
}

func (m *Manager) recordAuth(ctx context.Context, result string) {
	if m.metrics != nil {
		m.metrics.RecordOAuthAuth(ctx, result)
	}
}

func (m *Manager) recordRefresh(ctx context.Context, result string) {
	if m.metrics != nil {
		m.metrics.RecordOAuthTokenRefresh(ctx, result)
	}
}

// displayIdentity extracts the signed-in user's identity from the ID token
// attached to the token response. The token is parsed without signature
// verification: it was received directly from the token endpoint over TLS
// and is only used for display.
func displayIdentity(tok *oauth2.Token) string {
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return ""
	}

	for _, key := range []string{"preferred_username", "email", "name"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

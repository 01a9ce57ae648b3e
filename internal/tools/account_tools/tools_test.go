package account_tools

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outlookmcp/internal/auth"
	"outlookmcp/internal/config"
	"outlookmcp/internal/server"
	"outlookmcp/internal/tokencache"
)

func newTestServerContext(t *testing.T) (*server.ServerContext, *tokencache.Store) {
	t.Helper()

	reg := config.NewRegistry([]config.AccountConfig{
		{Name: "work", ClientID: "c1", ClientSecret: "s1"},
		{Name: "personal", ClientID: "c2", ClientSecret: "s2"},
	})
	store := tokencache.NewStore(filepath.Join(t.TempDir(), "tokens.json"))
	mgr := auth.NewManager(reg, store, config.ServerConfig{Port: 0})

	sc := server.NewServerContext(context.Background(), reg, mgr)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, store
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestAccountListShowsStatus(t *testing.T) {
	sc, store := newTestServerContext(t)
	require.NoError(t, store.Put("work", tokencache.Record{
		AccessToken: "tok",
		ExpiresOn:   time.Now().Add(time.Hour),
	}))

	result, err := handleAccountList(context.Background(), request(nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	out := resultText(t, result)
	assert.Contains(t, out, "- work: authenticated")
	assert.Contains(t, out, "- personal: not authenticated")
}

func TestAccountLoginRequiresAccount(t *testing.T) {
	sc, _ := newTestServerContext(t)

	result, err := handleAccountLogin(context.Background(), request(map[string]interface{}{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "account is required")
}

func TestAccountLoginUnknownAccount(t *testing.T) {
	sc, _ := newTestServerContext(t)

	result, err := handleAccountLogin(context.Background(), request(map[string]interface{}{
		"account": "nope",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "nope")
}

func TestAccountLogoutSingle(t *testing.T) {
	sc, store := newTestServerContext(t)
	require.NoError(t, store.Put("work", tokencache.Record{
		AccessToken: "tok",
		ExpiresOn:   time.Now().Add(time.Hour),
	}))

	result, err := handleAccountLogout(context.Background(), request(map[string]interface{}{
		"account": "work",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.False(t, sc.AuthManager().HasSession("work"))
}

func TestAccountLogoutUnknownAccount(t *testing.T) {
	sc, _ := newTestServerContext(t)

	result, err := handleAccountLogout(context.Background(), request(map[string]interface{}{
		"account": "nope",
	}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestAccountLogoutAll(t *testing.T) {
	sc, store := newTestServerContext(t)
	for _, name := range []string{"work", "personal"} {
		require.NoError(t, store.Put(name, tokencache.Record{
			AccessToken: "tok",
			ExpiresOn:   time.Now().Add(time.Hour),
		}))
	}

	result, err := handleAccountLogout(context.Background(), request(nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.False(t, sc.AuthManager().HasSession("work"))
	assert.False(t, sc.AuthManager().HasSession("personal"))
}

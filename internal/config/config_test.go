package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeConfig(t, `
accounts:
  - name: work
    tenantId: contoso.onmicrosoft.com
    clientId: client-1
    clientSecret: secret-1
  - name: personal
    clientId: client-2
    clientSecret: secret-2
server:
  port: 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Accounts, 2)
	assert.Equal(t, "work", cfg.Accounts[0].Name)
	assert.Equal(t, "contoso.onmicrosoft.com", cfg.Accounts[0].TenantID)
	// Missing tenant falls back to the common authority
	assert.Equal(t, "common", cfg.Accounts[1].TenantID)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:9000/callback", cfg.Server.RedirectURI)
}

func TestLoadDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "outlookmcp")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
accounts:
  - name: home
    clientId: c
    clientSecret: s
`), 0600))

	// An empty path resolves to the default location under the home dir.
	cfg, err := Load("")
	require.NoError(t, err)
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, "home", cfg.Accounts[0].Name)
}

func TestLoadDefaultPathMissingFallsToEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OUTLOOK_CLIENT_ID", "client-y")
	t.Setenv("OUTLOOK_CLIENT_SECRET", "secret-y")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, DefaultAccountName, cfg.Accounts[0].Name)
	assert.Equal(t, "client-y", cfg.Accounts[0].ClientID)
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("OUTLOOK_TENANT_ID", "tenant-x")
	t.Setenv("OUTLOOK_CLIENT_ID", "client-x")
	t.Setenv("OUTLOOK_CLIENT_SECRET", "secret-x")
	t.Setenv("OUTLOOK_PORT", "8111")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, DefaultAccountName, cfg.Accounts[0].Name)
	assert.Equal(t, "tenant-x", cfg.Accounts[0].TenantID)
	assert.Equal(t, 8111, cfg.Server.Port)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no accounts",
			content: "accounts: []\n",
			wantErr: "no accounts configured",
		},
		{
			name: "missing name",
			content: `
accounts:
  - clientId: c
    clientSecret: s
`,
			wantErr: "name is required",
		},
		{
			name: "missing client id",
			content: `
accounts:
  - name: a
    clientSecret: s
`,
			wantErr: "clientId is required",
		},
		{
			name: "missing secret",
			content: `
accounts:
  - name: a
    clientId: c
`,
			wantErr: "clientSecret is required",
		},
		{
			name: "duplicate names",
			content: `
accounts:
  - name: a
    clientId: c1
    clientSecret: s1
  - name: a
    clientId: c2
    clientSecret: s2
`,
			wantErr: "duplicate account name",
		},
		{
			name: "invalid port",
			content: `
accounts:
  - name: a
    clientId: c
    clientSecret: s
server:
  port: 99999
`,
			wantErr: "invalid server port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "accounts: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry([]AccountConfig{
		{Name: "zeta", ClientID: "c", ClientSecret: "s"},
		{Name: "alpha", ClientID: "c", ClientSecret: "s"},
	})

	// Order follows the manifest, not alphabetical order.
	assert.Equal(t, []string{"zeta", "alpha"}, reg.List())
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry([]AccountConfig{
		{Name: "work", TenantID: "t", ClientID: "c", ClientSecret: "s"},
	})

	acc, err := reg.Get("work")
	require.NoError(t, err)
	assert.Equal(t, "c", acc.ClientID)

	_, err = reg.Get("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

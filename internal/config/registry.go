package config

import "fmt"

// ErrAccountNotFound is returned when an account name is not present in
// the registry.
var ErrAccountNotFound = fmt.Errorf("account not found")

// Registry is the immutable set of configured accounts. It is built once
// at startup and passed by reference to everything that needs account
// lookups; there is no runtime mutation.
type Registry struct {
	accounts []AccountConfig
	byName   map[string]AccountConfig
}

// NewRegistry builds a registry from validated account configuration.
// Account order is preserved from the manifest.
func NewRegistry(accounts []AccountConfig) *Registry {
	byName := make(map[string]AccountConfig, len(accounts))
	for _, acc := range accounts {
		byName[acc.Name] = acc
	}
	return &Registry{
		accounts: accounts,
		byName:   byName,
	}
}

// List returns account names in configuration order.
func (r *Registry) List() []string {
	names := make([]string, len(r.accounts))
	for i, acc := range r.accounts {
		names[i] = acc.Name
	}
	return names
}

// Get returns the configuration for a named account.
func (r *Registry) Get(name string) (AccountConfig, error) {
	acc, ok := r.byName[name]
	if !ok {
		return AccountConfig{}, fmt.Errorf("%w: %q", ErrAccountNotFound, name)
	}
	return acc, nil
}

// Len returns the number of configured accounts.
func (r *Registry) Len() int {
	return len(r.accounts)
}

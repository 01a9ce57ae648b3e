// Package server holds the shared runtime state for the MCP server:
// the account registry, the authentication manager, lazily created
// per-account Graph clients, health probes, and the dedicated
// Prometheus metrics listener.
package server

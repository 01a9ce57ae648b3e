// Package account_tools provides MCP tools for managing account
// sessions: listing configured accounts, running the interactive
// browser login, and clearing cached credentials.
package account_tools

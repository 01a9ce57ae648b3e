// Package calendar_tools provides MCP tools for Outlook calendars:
// listing upcoming events across accounts and creating events when the
// server is not running read-only.
package calendar_tools

// Package mail_tools provides MCP tools for Outlook mail: listing,
// reading, and searching messages, and sending mail when the server is
// not running read-only. Read tools fan out across every configured
// account unless an account is named.
package mail_tools

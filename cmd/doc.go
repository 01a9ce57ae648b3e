// Package cmd implements the outlookmcp command line interface: the
// stdio MCP server plus login, logout, and account listing helpers.
package cmd

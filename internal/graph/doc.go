// Package graph is a minimal Microsoft Graph v1.0 REST client for the
// mail and calendar operations this server exposes. Each client is bound
// to one account and pulls its access token through a TokenFunc on every
// request, so silent refreshes upstream are picked up transparently.
package graph

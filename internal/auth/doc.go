// Package auth owns the per-account OAuth2 session state against Azure AD.
//
// The Manager holds one oauth2.Config per configured account and exposes
// three things: a cached-token fast path with transparent silent refresh
// (AccessToken), the interactive authorization-code flow with a one-shot
// local redirect listener (StartLogin), and token disposal (Logout).
//
// Interactive logins are correlated with their redirect callbacks through
// an opaque state value tracked in a pending-flow table. Each flow settles
// exactly once: by the callback, by the fixed login timeout, or by context
// cancellation; late or duplicate callbacks are ignored.
package auth

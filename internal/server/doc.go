// Package server provides HTTP routing, middleware, and the OAuth loopback
// callback used by the CLI authentication flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow:
// it validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, and sends the result through a channel.
// It only processes one callback to prevent replay attacks.
//
// # Usage
//
// When the user runs `amx auth login`, [CallbackServer] starts a temporary
// HTTP server on the configured localhost port, handles the provider
// redirect, and shuts down after receiving the OAuth token.
package server

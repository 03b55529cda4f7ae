// Package services implements the destination catalog client for the amx sync engine.
//
// [SpotifyService] is the concrete implementation of [Catalog] and
// [PlaylistManager] against the Spotify Web API. All remote calls flow through
// a single request helper that applies the shared policy: bearer
// authentication via a [CredentialProvider], transparent wait-and-retry on 429
// responses honoring Retry-After, credential invalidation on 401, and hard
// failure on any other non-success status.
//
// The sync engine in internal/tasks depends only on the [Catalog] interface so
// tests can substitute an in-memory double.
package services

// Package models defines domain entities and persistence interfaces for the amx playlist sync service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing external service data
//   - [SourceTrack] : A title/artist pair from the source playlist page, with no catalog identifier
//   - [SourcePlaylist] : The extracted source playlist (name plus ordered tracks)
//   - [Track] : A destination catalog track with native id and URI
//   - [Playlist] : Basic playlist metadata from the destination service
//
// 2. Persistent Entities: Database-backed models
//   - [CachedMatch] : A resolved source→destination match persisted for reuse across runs
//
// Persistent entities implement the Model interface providing ID generation, timestamps, and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models

// Package repositories implements SQLite persistence for the match cache.
//
// [TrackRepository] stores every source→destination resolution keyed by the
// normalized match key, with atomic sequence generation for human-readable
// ordering and soft deletes via deleted_at timestamps. Deleted records are
// excluded from queries by default.
//
// [TrackCacheAdapter] narrows the repository to the lookup/store pair the sync
// engine consumes, so a repeat sync of the same source list never re-searches
// tracks it already resolved.
package repositories

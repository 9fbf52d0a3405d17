// Package gallery stores published frogs: a composed prompt together with the
// image generated from it and the date it was published.
//
// Store is the persistence contract. Two implementations ship with the
// module:
//
//	memoryhost : process-local, RAM only; tests and single-instance servers
//	redishost  : Redis-backed; survives restarts and is shared between replicas
//
// Both are checked against the same behavioral suite in gallerytest.
//
// Listing is newest first and paginated with opaque cursors. A cursor is only
// meaningful to the store that produced it.
package gallery

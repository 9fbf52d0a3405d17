// Package memoryhost provides an in-memory gallery.Store suitable for tests,
// development, and single-process servers. All entries are discarded on
// process exit.
//
// Example:
//
//	store := memoryhost.New()
//	h, err := httpapi.New(composer, store)
package memoryhost

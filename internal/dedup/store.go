// Package dedup persists the set of composite keys already uploaded so
// separate backup runs never re-transfer the same item.
package dedup

// Store is a persisted set of composite keys (album/itemID). Keys are
// only ever added; clearing is a manual operation outside the client.
type Store interface {
	// Has reports whether key was already marked uploaded.
	Has(key string) bool
	// Mark records key as uploaded and flushes it durably.
	Mark(key string) error
	// Len returns the number of known keys.
	Len() int
}

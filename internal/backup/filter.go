package backup

import (
	"github.com/albumkeep/albumkeep/internal/dedup"
)

// availabilityChecker lets an item veto itself without resolving its
// byte source. Items that don't implement it are assumed available.
type availabilityChecker interface {
	Available() bool
}

// Filter returns, in input order, the items that expose a usable byte
// source. When archival is set, items whose composite key is already in
// the dedup store are dropped as well. No network I/O is performed.
func Filter(items []Item, archival bool, store dedup.Store) []Item {
	var kept []Item
	for _, it := range items {
		if it.Kind() == KindUnknown {
			continue
		}
		if c, ok := it.(availabilityChecker); ok && !c.Available() {
			continue
		}
		if archival && store != nil {
			key, err := ItemKey(it)
			if err != nil {
				continue
			}
			if store.Has(key.String()) {
				continue
			}
		}
		kept = append(kept, it)
	}
	return kept
}

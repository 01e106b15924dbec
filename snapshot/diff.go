package snapshot

import "sort"

// Changes lists the top-level keys that appeared or disappeared between
// two snapshots. Both slices are sorted.
type Changes struct {
	Added   []string
	Removed []string
}

// Empty reports whether no key was added or removed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Diff compares the key sets of prev and next. Values are not compared.
func Diff(prev, next *Snapshot) Changes {
	var c Changes
	for _, k := range next.Keys() {
		if !prev.Has(k) {
			c.Added = append(c.Added, k)
		}
	}
	for _, k := range prev.Keys() {
		if !next.Has(k) {
			c.Removed = append(c.Removed, k)
		}
	}
	sort.Strings(c.Added)
	sort.Strings(c.Removed)
	return c
}

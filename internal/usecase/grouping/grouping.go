// Package grouping buckets records by a derived key while keeping input order.
package grouping

// Grouped holds records bucketed by key.
// Keys are kept in first-seen order; records keep their input order within a group.
type Grouped[K comparable, T any] struct {
	keys   []K
	groups map[K][]T
}

// TypeCount is the number of records sharing a key
type TypeCount[K comparable] struct {
	Type  K   `json:"type"`
	Count int `json:"count"`
}

// GroupByType buckets records by keyFn in a single left-to-right scan
func GroupByType[K comparable, T any](records []T, keyFn func(T) K) *Grouped[K, T] {
	g := &Grouped[K, T]{groups: make(map[K][]T)}
	for _, record := range records {
		key := keyFn(record)
		if _, seen := g.groups[key]; !seen {
			g.keys = append(g.keys, key)
		}
		g.groups[key] = append(g.groups[key], record)
	}
	return g
}

// Keys returns the group keys in first-seen order
func (g *Grouped[K, T]) Keys() []K {
	out := make([]K, len(g.keys))
	copy(out, g.keys)
	return out
}

// Get returns the records for key
func (g *Grouped[K, T]) Get(key K) ([]T, bool) {
	records, ok := g.groups[key]
	return records, ok
}

// Len returns the number of distinct keys
func (g *Grouped[K, T]) Len() int {
	return len(g.keys)
}

type countOptions struct {
	includeUnlisted bool
}

// CountOption configures CountsInFixedOrder
type CountOption func(*countOptions)

// IncludeUnlisted appends keys missing from the canonical order after the
// canonical entries, in first-seen order. Without it those keys are dropped.
func IncludeUnlisted() CountOption {
	return func(o *countOptions) {
		o.includeUnlisted = true
	}
}

// CountsInFixedOrder returns per-key counts following canonical.
// Keys with no records are skipped rather than reported as zero.
func CountsInFixedOrder[K comparable, T any](g *Grouped[K, T], canonical []K, opts ...CountOption) []TypeCount[K] {
	var o countOptions
	for _, opt := range opts {
		opt(&o)
	}

	counts := make([]TypeCount[K], 0, len(canonical))
	listed := make(map[K]bool, len(canonical))
	for _, key := range canonical {
		if listed[key] {
			continue
		}
		listed[key] = true
		if records, ok := g.groups[key]; ok {
			counts = append(counts, TypeCount[K]{Type: key, Count: len(records)})
		}
	}

	if o.includeUnlisted {
		for _, key := range g.keys {
			if !listed[key] {
				counts = append(counts, TypeCount[K]{Type: key, Count: len(g.groups[key])})
			}
		}
	}

	return counts
}

package domain

import "slices"

// FeatureSet is a set of active feature names. Growth is monotonic: resolution
// only ever adds to a set, never removes.
type FeatureSet map[string]struct{}

// NewFeatureSet builds a set from the given names.
func NewFeatureSet(names ...string) FeatureSet {
	fs := make(FeatureSet, len(names))
	for _, n := range names {
		fs[n] = struct{}{}
	}
	return fs
}

// Add inserts a name and reports whether it was new.
func (fs FeatureSet) Add(name string) bool {
	if _, ok := fs[name]; ok {
		return false
	}
	fs[name] = struct{}{}
	return true
}

// Has reports membership.
func (fs FeatureSet) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// Sorted returns the members in lexical order.
func (fs FeatureSet) Sorted() []string {
	out := make([]string, 0, len(fs))
	for n := range fs {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy.
func (fs FeatureSet) Clone() FeatureSet {
	out := make(FeatureSet, len(fs))
	for n := range fs {
		out[n] = struct{}{}
	}
	return out
}

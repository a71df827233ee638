package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// PackageSet is the immutable snapshot of all package records from one
// ingestion. It is built once, then shared read-only across resolutions.
type PackageSet struct {
	records map[string]*PackageRecord
	byName  map[string][]*PackageRecord
	order   []string
}

// NewPackageSet creates an empty set.
func NewPackageSet() *PackageSet {
	return &PackageSet{
		records: make(map[string]*PackageRecord),
		byName:  make(map[string][]*PackageRecord),
	}
}

// Add inserts a record. It returns ErrDuplicatePackage when a record with the
// same identity already exists.
func (s *PackageSet) Add(rec *PackageRecord) error {
	key := rec.ID.Key()
	if _, exists := s.records[key]; exists {
		return zerr.With(ErrDuplicatePackage, "package", key)
	}
	s.records[key] = rec
	name := rec.ID.Name.String()
	s.byName[name] = append(s.byName[name], rec)
	s.order = nil
	return nil
}

// Get returns the record with the given identity key.
func (s *PackageSet) Get(key string) (*PackageRecord, bool) {
	rec, ok := s.records[key]
	return rec, ok
}

// ByName returns all records for a package name, ordered by version then source.
func (s *PackageSet) ByName(name string) []*PackageRecord {
	recs := slices.Clone(s.byName[name])
	slices.SortFunc(recs, func(a, b *PackageRecord) int {
		if a.ID.Less(b.ID) {
			return -1
		}
		if b.ID.Less(a.ID) {
			return 1
		}
		return 0
	})
	return recs
}

// Len returns the number of records.
func (s *PackageSet) Len() int {
	return len(s.records)
}

// All returns an iterator over records in deterministic identity order.
func (s *PackageSet) All() iter.Seq[*PackageRecord] {
	if s.order == nil {
		s.order = make([]string, 0, len(s.records))
		for key := range s.records {
			s.order = append(s.order, key)
		}
		slices.Sort(s.order)
	}
	return func(yield func(*PackageRecord) bool) {
		for _, key := range s.order {
			if !yield(s.records[key]) {
				return
			}
		}
	}
}

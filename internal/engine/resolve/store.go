// Package resolve turns raw access records into resolved ones: each record
// is bound to the concrete member declaration it targets, using the class
// registry, the hierarchy disambiguator and, as last resort, fallback
// member synthesis. The output is a caller-keyed model plus a warnings
// list for everything that could not be bound.
package resolve

import (
	"sort"
	"sync"

	"classlink/internal/engine/classmodel"
)

// Store holds unresolved access records exactly as captured by the
// scanner. Records are deduplicated by their full identity (caller,
// target, line, kind, access type) and may be registered concurrently.
type Store struct {
	mu      sync.Mutex
	records map[classmodel.RawAccess]struct{}
}

func NewStore() *Store {
	return &Store{records: make(map[classmodel.RawAccess]struct{})}
}

func (s *Store) Register(rec classmodel.RawAccess) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec] = struct{}{}
}

func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// All returns the records in a deterministic order so that resolution runs
// are reproducible against an unchanged registry.
func (s *Store) All() []classmodel.RawAccess {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]classmodel.RawAccess, 0, len(s.records))
	for rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Caller != b.Caller {
			if a.Caller.DeclaringClass != b.Caller.DeclaringClass {
				return a.Caller.DeclaringClass < b.Caller.DeclaringClass
			}
			if a.Caller.Name != b.Caller.Name {
				return a.Caller.Name < b.Caller.Name
			}
			return a.Caller.Descriptor < b.Caller.Descriptor
		}
		if a.Target != b.Target {
			if a.Target.Owner != b.Target.Owner {
				return a.Target.Owner < b.Target.Owner
			}
			if a.Target.Name != b.Target.Name {
				return a.Target.Name < b.Target.Name
			}
			return a.Target.Descriptor < b.Target.Descriptor
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Kind < b.Kind
	})
	return out
}

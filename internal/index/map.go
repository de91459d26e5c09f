// Package index builds and maintains the keyed ResourceMap used throughout
// the reconciler: a mapping from a derived key to exactly one Resource.
package index

import (
	"github.com/sirupsen/logrus"

	"github.com/zonecraft/macrotine/internal/macrotine"
	"github.com/zonecraft/macrotine/internal/resource"
	"github.com/zonecraft/macrotine/internal/tinydns"
)

// ResourceMap groups Resources by their derived key. Keys are guaranteed
// unique by construction; Build is the only way to populate one from raw
// Resources so the merge/duplicate-PTR discipline is always enforced.
type ResourceMap map[string]resource.Resource

// Clone returns a shallow copy safe to mutate independently of m.
func (m ResourceMap) Clone() ResourceMap {
	out := make(ResourceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns m's keys, unordered.
func (m ResourceMap) Keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Build groups resources by key, merging collisions (concatenating Values)
// except for PTR records, where a collision is a fatal duplicate. It returns
// a non-nil error iff any PTR collision or any rtype mismatch on merge
// occurred; the returned map still
// contains everything else that was built along the way, for diagnostics.
func Build(resources []resource.Resource, log *logrus.Logger) (ResourceMap, error) {
	m := make(ResourceMap, len(resources))
	var firstErr error

	for _, rec := range resources {
		key := rec.Key()
		existing, ok := m[key]
		if !ok {
			m[key] = rec
			continue
		}

		if rec.RType == tinydns.PTR {
			if log != nil {
				log.Errorf("duplicate PTR record for key %s", key)
			}
			if firstErr == nil {
				firstErr = &macrotine.IndexError{Key: key, Reason: "duplicate PTR record"}
			}
			continue
		}

		merged := existing
		if !merged.Merge(rec) {
			if firstErr == nil {
				firstErr = &macrotine.IndexError{Key: key, Reason: "rtype mismatch on merge"}
			}
			continue
		}
		m[key] = merged
	}

	return m, firstErr
}

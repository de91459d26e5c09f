// Package compare implements the three-way diff: local (desired) against
// state (last known) against remote (observed). Every function here is
// pure — it consumes ResourceMaps and returns new ones rather than mutating
// its arguments, so the pipeline stays easy to test and reason about.
package compare

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zonecraft/macrotine/internal/index"
)

// ReconcileStateWithRemote corrects state to reflect what the provider
// actually has before it is diffed against local desires. Keys present only
// in remote are intentionally left out here; whether to adopt them is a
// Reconcile-level policy decision (see AdoptOrphans).
func ReconcileStateWithRemote(state, remote index.ResourceMap, log *logrus.Logger) (index.ResourceMap, []string) {
	out := state.Clone()
	var warnings []string

	for key, rec := range state {
		remoteRec, ok := remote[key]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("record %s appears in state but not remote", key))
			if log != nil {
				log.Warnf("record %s appears in state but not remote", key)
			}
			delete(out, key)
			continue
		}
		if !rec.Equal(remoteRec) {
			warnings = append(warnings, fmt.Sprintf("remote record %s does not match statefile, absorbing drift", key))
			if log != nil {
				log.Warnf("remote drift on %s: state=%v remote=%v", key, rec, remoteRec)
			}
			out[key] = remoteRec
		}
	}

	return out, warnings
}

// AdoptOrphans additionally marks state keys that exist only in remote (not
// in state, not handled above) as adoptable by inserting them into state.
// This implements the --adopt-orphans=delete behavior described in the
// design notes; the default policy (ignore) never calls this.
func AdoptOrphans(state, local, remote index.ResourceMap) index.ResourceMap {
	out := state.Clone()
	for key, rec := range remote {
		if _, inState := state[key]; inState {
			continue
		}
		if _, inLocal := local[key]; inLocal {
			continue
		}
		out[key] = rec
	}
	return out
}

// DiffLocalAgainstState partitions local against state into new, updated
// and deleted sets. Resources equal in both produce no entry.
func DiffLocalAgainstState(local, state index.ResourceMap) (newRes, updated, deleted index.ResourceMap) {
	newRes = make(index.ResourceMap)
	updated = make(index.ResourceMap)
	deleted = make(index.ResourceMap)

	for key, rec := range local {
		if stateRec, ok := state[key]; ok {
			if !rec.Equal(stateRec) {
				updated[key] = rec
			}
			continue
		}
		newRes[key] = rec
	}

	for key, rec := range state {
		if _, ok := local[key]; !ok {
			deleted[key] = rec
		}
	}

	return newRes, updated, deleted
}

// AbsorbNewAgainstRemote reconciles the "new" set against what the provider
// already has: an entry matching remote needs no work and is dropped; an
// entry differing from remote is moved into updated as a forced upsert.
// Returns new copies of newRes and updated; inputs are left untouched.
func AbsorbNewAgainstRemote(newRes, updated, remote index.ResourceMap, log *logrus.Logger) (index.ResourceMap, index.ResourceMap, []string) {
	outNew := newRes.Clone()
	outUpdated := updated.Clone()
	var warnings []string

	for key, rec := range newRes {
		remoteRec, ok := remote[key]
		if !ok {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("record %s missing from statefile", key))
		if log != nil {
			log.Warnf("record %s missing from statefile", key)
		}
		if rec.Equal(remoteRec) {
			delete(outNew, key)
			continue
		}
		delete(outNew, key)
		outUpdated[key] = rec
	}

	return outNew, outUpdated, warnings
}

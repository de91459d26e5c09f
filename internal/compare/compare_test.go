package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zonecraft/macrotine/internal/index"
	"github.com/zonecraft/macrotine/internal/resource"
	"github.com/zonecraft/macrotine/internal/tinydns"
)

func r(values ...string) resource.Resource {
	return resource.Resource{ZoneID: "Z1", Name: "x", RType: tinydns.A, Values: values, TTL: 300}
}

// S4 — three-way diff with drift.
func TestThreeWayDiff_WithDrift(t *testing.T) {
	r1Old := r("1.1.1.1")
	r1Drift := r("9.9.9.9")
	r1New := r("2.2.2.2")
	r2 := r("3.3.3.3")
	r3 := r("4.4.4.4")

	state := index.ResourceMap{"k1": r1Old}
	remote := index.ResourceMap{"k1": r1Drift, "k2": r2}
	local := index.ResourceMap{"k1": r1New, "k3": r3}

	reconciled, warnings := ReconcileStateWithRemote(state, remote, nil)
	assert.NotEmpty(t, warnings)
	assert.Equal(t, r1Drift, reconciled["k1"])
	_, hasK2 := reconciled["k2"]
	assert.False(t, hasK2, "remote-only keys are not inserted into state by reconcile")

	newRes, updated, deleted := DiffLocalAgainstState(local, reconciled)
	assert.Equal(t, index.ResourceMap{"k3": r3}, newRes)
	assert.Equal(t, index.ResourceMap{"k1": r1New}, updated)
	assert.Empty(t, deleted, "k2 is absent from post-reconcile state, so it is not flagged for deletion")
}

// S5 — absorb collision.
func TestAbsorbNewAgainstRemote_DropsMatchingCollision(t *testing.T) {
	rec := r("1.1.1.1")
	newRes := index.ResourceMap{"k": rec}
	updated := index.ResourceMap{}
	remote := index.ResourceMap{"k": rec}

	outNew, outUpdated, warnings := AbsorbNewAgainstRemote(newRes, updated, remote, nil)
	assert.Empty(t, outNew)
	assert.Empty(t, outUpdated)
	assert.NotEmpty(t, warnings)
}

func TestAbsorbNewAgainstRemote_MovesDifferingToUpdated(t *testing.T) {
	newRes := index.ResourceMap{"k": r("2.2.2.2")}
	updated := index.ResourceMap{}
	remote := index.ResourceMap{"k": r("1.1.1.1")}

	outNew, outUpdated, _ := AbsorbNewAgainstRemote(newRes, updated, remote, nil)
	assert.Empty(t, outNew)
	assert.Equal(t, r("2.2.2.2"), outUpdated["k"])
}

// Invariant 3: disjointness of new/updated/deleted.
func TestDiffLocalAgainstState_Disjoint(t *testing.T) {
	local := index.ResourceMap{"new": r("1"), "same": r("2"), "changed": r("3")}
	state := index.ResourceMap{"same": r("2"), "changed": r("9"), "gone": r("4")}

	newRes, updated, deleted := DiffLocalAgainstState(local, state)

	for k := range newRes {
		_, inUpdated := updated[k]
		_, inDeleted := deleted[k]
		assert.False(t, inUpdated || inDeleted)
	}
	for k := range updated {
		_, inDeleted := deleted[k]
		assert.False(t, inDeleted)
	}
	assert.Contains(t, newRes, "new")
	assert.Contains(t, updated, "changed")
	assert.Contains(t, deleted, "gone")
	assert.NotContains(t, newRes, "same")
	assert.NotContains(t, updated, "same")
}

func TestAdoptOrphans_OnlyAddsKeysAbsentFromBoth(t *testing.T) {
	state := index.ResourceMap{}
	local := index.ResourceMap{"in-local": r("1")}
	remote := index.ResourceMap{"in-local": r("1"), "orphan": r("2")}

	out := AdoptOrphans(state, local, remote)
	assert.Contains(t, out, "orphan")
	assert.NotContains(t, out, "in-local")
}

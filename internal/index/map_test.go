package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonecraft/macrotine/internal/macrotine"
	"github.com/zonecraft/macrotine/internal/resource"
	"github.com/zonecraft/macrotine/internal/tinydns"
)

// Invariant 6 / S6 — PTR duplication is fatal.
func TestBuild_DuplicatePTRFails(t *testing.T) {
	resources := []resource.Resource{
		{ZoneID: "Z1", Name: "4.3.2.1.in-addr.arpa", RType: tinydns.PTR, Values: []string{"a.example"}},
		{ZoneID: "Z1", Name: "4.3.2.1.in-addr.arpa", RType: tinydns.PTR, Values: []string{"b.example"}},
	}

	_, err := Build(resources, nil)
	require.Error(t, err)
	var idxErr *macrotine.IndexError
	assert.ErrorAs(t, err, &idxErr)
}

func TestBuild_NonPTRCollisionMerges(t *testing.T) {
	resources := []resource.Resource{
		{ZoneID: "Z1", Name: "a.test.com", RType: tinydns.TXT, Values: []string{"one"}},
		{ZoneID: "Z1", Name: "a.test.com", RType: tinydns.TXT, Values: []string{"two"}},
	}

	m, err := Build(resources, nil)
	require.NoError(t, err)
	require.Len(t, m, 1)
	for _, rec := range m {
		assert.ElementsMatch(t, []string{"one", "two"}, rec.Values)
	}
}

func TestBuild_DistinctKeysDoNotCollide(t *testing.T) {
	resources := []resource.Resource{
		{ZoneID: "Z1", Name: "a.test.com", RType: tinydns.A, Values: []string{"1.1.1.1"}},
		{ZoneID: "Z1", Name: "b.test.com", RType: tinydns.A, Values: []string{"2.2.2.2"}},
	}

	m, err := Build(resources, nil)
	require.NoError(t, err)
	assert.Len(t, m, 2)
}

package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Invariant 5: longest-suffix zone match.
func TestZoneTable_Match_LongestWins(t *testing.T) {
	zt := ZoneTable{
		{Name: "outer", Domain: "example.com", ID: "Z1"},
		{Name: "inner", Domain: "sub.example.com", ID: "Z2"},
	}

	z, ok := zt.Match("host.sub.example.com")
	require.True(t, ok)
	assert.Equal(t, "Z2", z.ID)
}

func TestZoneTable_Match_FirstDeclaredTiebreak(t *testing.T) {
	zt := ZoneTable{
		{Name: "first", Domain: "example.com", ID: "Z1"},
		{Name: "second", Domain: "example.com", ID: "Z2"},
	}

	z, ok := zt.Match("host.example.com")
	require.True(t, ok)
	assert.Equal(t, "Z1", z.ID)
}

func TestZoneTable_Match_NoneMatches(t *testing.T) {
	zt := ZoneTable{{Name: "z", Domain: "example.com", ID: "Z1"}}

	_, ok := zt.Match("host.other.net")
	assert.False(t, ok)
}

func TestZoneTable_Match_TrimsTrailingDot(t *testing.T) {
	zt := ZoneTable{{Name: "z", Domain: "example.com.", ID: "Z1"}}

	z, ok := zt.Match("host.example.com.")
	require.True(t, ok)
	assert.Equal(t, "Z1", z.ID)
}

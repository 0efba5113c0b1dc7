package versioning

import (
	"testing"

	"github.com/sciforge/depository/pkg/pidstore"
	"github.com/stretchr/testify/require"
)

func TestNextOrderIndex(t *testing.T) {
	require.Equal(t, 1, NextOrderIndex(nil))

	rels := []pidstore.PidRelation{
		{OrderIndex: 1},
		{OrderIndex: 2},
		{OrderIndex: 3},
	}
	require.Equal(t, 4, NextOrderIndex(rels))

	// Order indexes stay monotonic even when versions were removed.
	rels = []pidstore.PidRelation{{OrderIndex: 5}, {OrderIndex: 2}}
	require.Equal(t, 6, NextOrderIndex(rels))
}

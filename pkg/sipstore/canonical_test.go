package sipstore

import (
	"testing"

	"github.com/sciforge/depository/pkg/common/models"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSONIsStable(t *testing.T) {
	meta := &models.RecordMetadata{
		Title:           "Stable <dump> & sorted",
		Creators:        []models.Creator{{Name: "Doe, John"}},
		PublicationDate: "2026-08-27",
		AccessRight:     "open",
		Keywords:        []string{"b", "a"},
	}

	first, err := CanonicalJSON(meta)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := CanonicalJSON(meta)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	out, err := CanonicalJSON(map[string]interface{}{"z": 1, "a": 2, "m": 3})
	require.NoError(t, err)
	require.Equal(t, `{"a":2,"m":3,"z":1}`, string(out))
}

func TestCanonicalJSONKeepsHTML(t *testing.T) {
	out, err := CanonicalJSON(map[string]string{"d": "<b>&</b>"})
	require.NoError(t, err)
	require.Equal(t, `{"d":"<b>&</b>"}`, string(out))
}

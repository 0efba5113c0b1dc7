package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffGrowsExponentially(t *testing.T) {
	base := 30 * time.Second
	require.Equal(t, 30*time.Second, Backoff(base, 1))
	require.Equal(t, time.Minute, Backoff(base, 2))
	require.Equal(t, 2*time.Minute, Backoff(base, 3))
	require.Equal(t, 16*time.Minute, Backoff(base, 6))
}

func TestBackoffIsCapped(t *testing.T) {
	require.Equal(t, time.Hour, Backoff(30*time.Second, 20))
}

func TestBackoffDefaultsBase(t *testing.T) {
	require.Equal(t, time.Second, Backoff(0, 1))
}

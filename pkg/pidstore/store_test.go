package pidstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		action Action
		from   Status
		ok     bool
	}{
		{ActionReserve, StatusNew, true},
		{ActionReserve, StatusReserved, false},
		{ActionReserve, StatusRegistered, false},
		{ActionRegister, StatusNew, true},
		{ActionRegister, StatusReserved, true},
		{ActionRegister, StatusDeleted, false},
		{ActionUpdate, StatusRegistered, true},
		{ActionUpdate, StatusRedirected, true},
		{ActionUpdate, StatusDeleted, true},
		{ActionUpdate, StatusNew, false},
		{ActionUpdate, StatusReserved, false},
		{ActionDelete, StatusNew, true},
		{ActionDelete, StatusReserved, true},
		{ActionDelete, StatusRegistered, true},
		{ActionDelete, StatusRedirected, true},
		{ActionDelete, StatusDeleted, false},
		{ActionRedirect, StatusRegistered, true},
		{ActionRedirect, StatusReserved, false},
		{ActionRedirect, StatusRedirected, false},
	}

	for _, tc := range cases {
		got := CanTransition(tc.action, tc.from)
		require.Equalf(t, tc.ok, got, "%s from %s", tc.action, tc.from)
	}
}

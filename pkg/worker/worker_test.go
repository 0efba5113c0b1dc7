package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/outbox"
	"github.com/sciforge/depository/pkg/pidstore"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestHandleRejectsUnknownKind(t *testing.T) {
	w := &Worker{}
	err := w.handle(context.Background(), nil, "definitely-not-a-kind", &payload{})
	var perm *permanentError
	require.ErrorAs(t, err, &perm)
}

func TestLoadRecordRejectsBadID(t *testing.T) {
	w := &Worker{}
	_, err := w.loadRecord(context.Background(), "not-a-uuid")
	var perm *permanentError
	require.ErrorAs(t, err, &perm)
}

func TestPayloadShape(t *testing.T) {
	raw := []byte(`{"doi":"10.5281/depository.42","depid":7,"record_id":"abc","landing":"https://depository.local/record/42"}`)
	var p payload
	require.NoError(t, json.Unmarshal(raw, &p))
	require.Equal(t, "10.5281/depository.42", p.DOI)
	require.Equal(t, int64(7), p.Depid)
	require.Equal(t, "https://depository.local/record/42", p.Landing)
}

func TestMirrorActionFallsBackToRegister(t *testing.T) {
	// An update message for a DOI whose first registration never landed
	// must register it, not attempt an update from RESERVED.
	require.Equal(t, pidstore.ActionRegister, mirrorAction(true, pidstore.StatusReserved))
	require.Equal(t, pidstore.ActionRegister, mirrorAction(true, pidstore.StatusNew))
	require.Equal(t, pidstore.ActionUpdate, mirrorAction(true, pidstore.StatusRegistered))
	require.Equal(t, pidstore.ActionUpdate, mirrorAction(true, pidstore.StatusRedirected))
	require.Equal(t, pidstore.ActionUpdate, mirrorAction(true, pidstore.StatusDeleted))
	require.Equal(t, pidstore.ActionRegister, mirrorAction(false, pidstore.StatusReserved))
	require.Equal(t, pidstore.ActionRegister, mirrorAction(false, pidstore.StatusRegistered))
}

func TestEventTypeForKinds(t *testing.T) {
	require.Equal(t, EventDOIRegistered, eventTypeFor(outbox.KindRegisterDOI))
	require.Equal(t, EventDOIUpdated, eventTypeFor(outbox.KindUpdateDOI))
	require.Equal(t, EventRecordIndexed, eventTypeFor(outbox.KindIndexRecord))
	require.Empty(t, eventTypeFor("something-else"))
}

func TestProducerForUnknownTopic(t *testing.T) {
	w := &Worker{}
	require.Nil(t, w.producerFor("no-such-topic"))
}

func TestPermanentErrorMessage(t *testing.T) {
	err := error(&permanentError{kind: "x"})
	require.True(t, errors.As(err, new(*permanentError)))
	require.Contains(t, err.Error(), "x")
}

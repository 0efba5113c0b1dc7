package deposit

import (
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/common/models"
	"github.com/sciforge/depository/pkg/outbox"
	"github.com/sciforge/depository/pkg/pidstore"
	"github.com/sciforge/depository/pkg/records"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestActiveDraftName(t *testing.T) {
	require.Equal(t, DraftDefault, ActiveDraftName(StateUnsubmitted))
	require.Equal(t, DraftEdit, ActiveDraftName(StateInProgress))
	require.Equal(t, DraftDefault, ActiveDraftName(StateDone))
	require.Equal(t, DraftDefault, ActiveDraftName(StateError))
}

func TestActiveDraftForPrefersOpenEdit(t *testing.T) {
	dep := &Deposition{Drafts: map[string]Draft{DraftDefault: {}}}
	require.Equal(t, DraftDefault, activeDraftFor(dep))

	dep.Drafts[DraftEdit] = Draft{}
	require.Equal(t, DraftEdit, activeDraftFor(dep))
}

func TestCarryOverMetadataClearsMintedFields(t *testing.T) {
	meta := models.RecordMetadata{
		Schema:        "https://example.org/schema.json",
		Recid:         42,
		ConceptRecid:  "41",
		DOI:           "10.5281/depository.42",
		ConceptDOI:    "10.5281/depository.41",
		OAIIdentifier: "oai:depository.local:recid/42",
		Title:         "My first upload",
		Creators:      []models.Creator{{Name: "Doe, John"}},
		Files:         []models.RecordFile{{Key: "data.csv"}},
	}

	out := carryOverMetadata(meta)
	require.Empty(t, out.Schema)
	require.Zero(t, out.Recid)
	require.Empty(t, out.DOI)
	require.Empty(t, out.ConceptDOI)
	require.Empty(t, out.OAIIdentifier)
	require.Empty(t, out.Files)

	// Descriptive fields carry over, including the concept.
	require.Equal(t, "41", out.ConceptRecid)
	require.Equal(t, "My first upload", out.Title)
	require.Len(t, out.Creators, 1)
}

func TestRevisionMetadataCarriesConceptDOI(t *testing.T) {
	// Revisions build their document from the deposition row, not from the
	// draft; the concept DOI minted on first publish must survive an
	// edit-republish even though the draft never saw it.
	s := &Service{opts: Options{SiteURL: "https://depository.local", OAIDomain: "depository.local"}}
	rid := uuid.New()
	m := &depositionModel{
		ID:           uuid.New(),
		Depid:        7,
		Owner:        "alice",
		Recid:        42,
		ConceptRecid: "41",
		RecordID:     &rid,
		DOI:          "10.5281/depository.42",
		ConceptDOI:   "10.5281/depository.41",
	}
	draft := models.RecordMetadata{Title: "v2"}

	out := s.buildRecordMetadata(draft, m, m.DOI, m.ConceptDOI, nil)
	require.Equal(t, "10.5281/depository.42", out.DOI)
	require.Equal(t, "10.5281/depository.41", out.ConceptDOI)
	require.Equal(t, "41", out.ConceptRecid)
}

func TestRevisionDOIKindReflectsPidStatus(t *testing.T) {
	// A DOI that never made it past RESERVED gets its first registration on
	// republish instead of an update the PID store would reject.
	require.Equal(t, outbox.KindRegisterDOI, revisionDOIKind(pidstore.StatusReserved))
	require.Equal(t, outbox.KindRegisterDOI, revisionDOIKind(pidstore.StatusNew))
	require.Equal(t, outbox.KindUpdateDOI, revisionDOIKind(pidstore.StatusRegistered))
	require.Equal(t, outbox.KindUpdateDOI, revisionDOIKind(pidstore.StatusRedirected))
}

func TestFileType(t *testing.T) {
	require.Equal(t, "application/pdf", fileType("paper.pdf"))
	require.Equal(t, "xyz", fileType("data.xyz"))
	require.Empty(t, fileType("README"))
}

func TestFailureKind(t *testing.T) {
	require.Equal(t, "validation", failureKind(&records.ValidationError{}))
	require.Equal(t, "conflict", failureKind(ErrConcurrentModification))
	require.Equal(t, "state", failureKind(ErrInvalidState))
	require.Equal(t, "internal", failureKind(errors.New("boom")))
}

func TestCheckOwner(t *testing.T) {
	m := &depositionModel{Owner: "alice"}

	require.NoError(t, checkOwner(m, models.RequestContext{UserID: "alice"}))
	require.ErrorIs(t, checkOwner(m, models.RequestContext{UserID: "bob"}), ErrForbidden)
	require.NoError(t, checkOwner(m, models.RequestContext{UserID: "bob", Admin: true}))
}

func TestDraftsRoundTrip(t *testing.T) {
	drafts := map[string]Draft{
		DraftDefault: {
			Metadata:  models.RecordMetadata{Title: "v1"},
			Completed: true,
		},
		DraftEdit: {
			Metadata: models.RecordMetadata{Title: "v2"},
		},
	}
	raw, err := marshalDrafts(drafts)
	require.NoError(t, err)

	m := &depositionModel{ID: uuid.New(), Depid: 7, Drafts: raw}
	dep, err := m.toDeposition()
	require.NoError(t, err)
	require.Equal(t, int64(7), dep.Depid)
	require.Equal(t, "v1", dep.Drafts[DraftDefault].Metadata.Title)
	require.True(t, dep.Drafts[DraftDefault].Completed)
	require.Equal(t, "v2", dep.Drafts[DraftEdit].Metadata.Title)
}

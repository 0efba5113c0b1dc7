package deposit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sciforge/depository/pkg/blobstore"
	"github.com/sciforge/depository/pkg/common/models"
	"github.com/sciforge/depository/pkg/doi"
	"github.com/sciforge/depository/pkg/outbox"
	"github.com/sciforge/depository/pkg/pidstore"
	"github.com/sciforge/depository/pkg/records"
	"github.com/sciforge/depository/pkg/sipstore"
	"github.com/sciforge/depository/pkg/versioning"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// The engine tests need a real database: the publish transaction leans on row
// locks and constraint translation that no fake reproduces. Set
// TEST_POSTGRES_DSN to run them.
func testEngine(t *testing.T) (*Service, *outbox.Outbox) {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	pids := pidstore.NewStore(db)
	require.NoError(t, pids.AutoMigrate())

	backend, err := blobstore.NewFSBackend(t.TempDir())
	require.NoError(t, err)
	blobs := blobstore.NewStore(db, backend, "md5", 0)
	require.NoError(t, blobs.AutoMigrate())

	reg, err := records.NewRegistry("", "")
	require.NoError(t, err)
	recs := records.NewStore(db, reg)
	require.NoError(t, recs.AutoMigrate())

	sips := sipstore.NewStore(db)
	require.NoError(t, sips.AutoMigrate())

	box := outbox.New(db)
	require.NoError(t, box.AutoMigrate())

	graph := versioning.NewGraph(db, pids, nil)
	sel := doi.NewSelector("10.5281", []string{"10.5072"}, &doi.ExternalProvider{})

	svc := NewService(db, pids, blobs, recs, sips, graph, sel, box, Options{
		SiteURL:    "https://depository.local",
		OAIDomain:  "depository.local",
		PIDTopic:   "pid-actions",
		IndexTopic: "index-actions",
	})
	require.NoError(t, svc.AutoMigrate())
	return svc, box
}

func draftMeta() models.RecordMetadata {
	return models.RecordMetadata{
		Title:           "Engine test upload",
		Creators:        []models.Creator{{Name: "Doe, John", Affiliation: "Depository"}},
		PublicationDate: time.Now().UTC().Format("2006-01-02"),
		ResourceType:    models.ResourceType{Type: "dataset"},
		AccessRight:     models.AccessOpen,
		License:         "cc-zero",
	}
}

func publishedDeposition(t *testing.T, svc *Service, rc models.RequestContext) *Deposition {
	t.Helper()
	ctx := context.Background()

	dep, err := svc.Create(ctx, rc)
	require.NoError(t, err)
	_, err = svc.UpdateDraft(ctx, dep.Depid, rc, draftMeta(), true)
	require.NoError(t, err)
	_, err = svc.Publish(ctx, dep.Depid, rc)
	require.NoError(t, err)

	dep, err = svc.Get(ctx, dep.Depid, rc)
	require.NoError(t, err)
	return dep
}

func TestPublishRetryAfterDoneIsNoOp(t *testing.T) {
	svc, box := testEngine(t)
	ctx := context.Background()
	rc := models.RequestContext{UserID: "alice", Email: "alice@example.org"}

	dep := publishedDeposition(t, svc, rc)
	require.Equal(t, StateDone, dep.State)
	require.NotZero(t, dep.Recid)

	pending, err := box.PendingCount(ctx)
	require.NoError(t, err)

	// A retried publish must hand back the same record without minting
	// anything new.
	recid, err := svc.Publish(ctx, dep.Depid, rc)
	require.NoError(t, err)
	require.Equal(t, dep.Recid, recid)

	after, err := box.PendingCount(ctx)
	require.NoError(t, err)
	require.Equal(t, pending, after)
}

func TestConceptAllowsOneDraftChild(t *testing.T) {
	svc, _ := testEngine(t)
	ctx := context.Background()
	rc := models.RequestContext{UserID: "bob", Email: "bob@example.org"}

	dep := publishedDeposition(t, svc, rc)

	child, err := svc.NewVersion(ctx, dep.Depid, rc)
	require.NoError(t, err)
	require.Equal(t, dep.ConceptRecid, child.ConceptRecid)
	require.NotEqual(t, dep.Depid, child.Depid)

	_, err = svc.NewVersion(ctx, dep.Depid, rc)
	require.ErrorIs(t, err, versioning.ErrDraftChildExists)
}

func TestConceptDOISurvivesEditRepublish(t *testing.T) {
	svc, _ := testEngine(t)
	ctx := context.Background()
	rc := models.RequestContext{UserID: "carol", Email: "carol@example.org"}

	dep := publishedDeposition(t, svc, rc)
	require.NotEmpty(t, dep.ConceptDOI)

	_, err := svc.Edit(ctx, dep.Depid, rc)
	require.NoError(t, err)
	meta := draftMeta()
	meta.Title = "Engine test upload, corrected"
	_, err = svc.UpdateDraft(ctx, dep.Depid, rc, meta, true)
	require.NoError(t, err)
	_, err = svc.Publish(ctx, dep.Depid, rc)
	require.NoError(t, err)

	dep, err = svc.Get(ctx, dep.Depid, rc)
	require.NoError(t, err)
	rec, err := svc.recs.Get(ctx, *dep.RecordID)
	require.NoError(t, err)
	require.Equal(t, dep.ConceptDOI, rec.Metadata.ConceptDOI)
	require.NotEmpty(t, rec.Metadata.ConceptDOI)
}

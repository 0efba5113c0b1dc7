package access

import (
	"testing"
	"time"

	"github.com/sciforge/depository/pkg/common/models"
	"github.com/stretchr/testify/require"
)

var (
	owner    = models.RequestContext{UserID: "u1", Email: "owner@example.org"}
	stranger = models.RequestContext{UserID: "u2", Email: "someone@example.org"}
	admin    = models.RequestContext{UserID: "u3", Admin: true}
)

func metaWith(accessRight string) *models.RecordMetadata {
	return &models.RecordMetadata{AccessRight: accessRight, Owner: "u1"}
}

func TestOpenIsPublic(t *testing.T) {
	now := time.Now()
	require.True(t, Evaluate(metaWith(models.AccessOpen), stranger, now))
	require.True(t, Evaluate(metaWith(models.AccessOpen), owner, now))
}

func TestEmbargoedFlipsAtDate(t *testing.T) {
	meta := metaWith(models.AccessEmbargoed)
	meta.EmbargoDate = "2099-01-01"

	before := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	after := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

	require.False(t, Evaluate(meta, stranger, before))
	require.True(t, Evaluate(meta, owner, before))
	require.True(t, Evaluate(meta, stranger, after))
	require.True(t, Evaluate(meta, stranger, after.Add(24*time.Hour)))
}

func TestRestrictedHonorsGrantees(t *testing.T) {
	meta := metaWith(models.AccessRestricted)
	meta.AccessGrantees = []string{"someone@example.org"}

	now := time.Now()
	require.True(t, Evaluate(meta, owner, now))
	require.True(t, Evaluate(meta, stranger, now))

	meta.AccessGrantees = nil
	require.False(t, Evaluate(meta, stranger, now))
}

func TestClosedIsOwnerOnly(t *testing.T) {
	now := time.Now()
	require.True(t, Evaluate(metaWith(models.AccessClosed), owner, now))
	require.False(t, Evaluate(metaWith(models.AccessClosed), stranger, now))
	require.True(t, Evaluate(metaWith(models.AccessClosed), admin, now))
}

func TestBadEmbargoDateStaysPrivate(t *testing.T) {
	meta := metaWith(models.AccessEmbargoed)
	meta.EmbargoDate = "not-a-date"
	require.False(t, Evaluate(meta, stranger, time.Now()))
	require.True(t, Evaluate(meta, owner, time.Now()))
}

package indexer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/common/models"
	"github.com/sciforge/depository/pkg/records"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestIsStale(t *testing.T) {
	require.True(t, IsStale(-1, 0))
	require.True(t, IsStale(0, 1))
	require.False(t, IsStale(1, 1))
	require.False(t, IsStale(2, 1))
}

func TestIndexPushesDocument(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ix := NewHTTPIndexer(srv.URL, nil)
	rec := &records.Record{
		ID:       uuid.New(),
		Revision: 0,
		Metadata: models.RecordMetadata{Title: "T"},
	}
	require.NoError(t, ix.Index(context.Background(), rec))
	require.Equal(t, http.MethodPut, method)
	require.Equal(t, "/"+rec.ID.String(), path)
}

func TestRemoveToleratesMissingDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ix := NewHTTPIndexer(srv.URL, nil)
	require.NoError(t, ix.Remove(context.Background(), uuid.New().String()))
}

func TestIndexSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ix := NewHTTPIndexer(srv.URL, nil)
	rec := &records.Record{ID: uuid.New(), Metadata: models.RecordMetadata{Title: "T"}}
	require.Error(t, ix.Index(context.Background(), rec))
}

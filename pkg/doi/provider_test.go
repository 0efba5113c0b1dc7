package doi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/common/models"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestSelectorPickedByPrefix(t *testing.T) {
	managed := NewDataCiteClient("http://registrar", "u", "p", time.Second)
	sel := NewSelector("10.5281", []string{"10.5072"}, managed)

	p, err := sel.ForDOI("10.5281/depository.7")
	require.NoError(t, err)
	require.Same(t, managed, p.(*DataCiteClient))

	p, err = sel.ForDOI("10.1234/external.1")
	require.NoError(t, err)
	_, ok := p.(*ExternalProvider)
	require.True(t, ok)
}

func TestSelectorRejectsBannedPrefix(t *testing.T) {
	sel := NewSelector("10.5281", []string{"10.5072"}, &ExternalProvider{})
	_, err := sel.ForDOI("10.5072/test.1")
	require.ErrorIs(t, err, ErrBannedPrefix)
}

func TestLocalDOIFormat(t *testing.T) {
	sel := NewSelector("10.5281", nil, &ExternalProvider{})
	require.Equal(t, "10.5281/depository.7", sel.LocalDOI(7))
	require.True(t, sel.IsManaged("10.5281/depository.7"))
	require.False(t, sel.IsManaged("10.1234/foreign.7"))
}

func registerMeta() *models.RecordMetadata {
	return &models.RecordMetadata{
		Title:           "T",
		Creators:        []models.Creator{{Name: "Doe, John"}},
		PublicationDate: "2026-08-27",
		AccessRight:     "open",
	}
}

func TestDataCiteRegisterSuccess(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "datacite-user", user)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewDataCiteClient(srv.URL, "datacite-user", "pw", time.Second)
	err := client.Register(context.Background(), "10.5281/depository.7", registerMeta(), "https://depository.local/record/7")
	require.NoError(t, err)
	require.Equal(t, []string{"POST /metadata", "PUT /doi/10.5281/depository.7"}, paths)
}

func TestDataCiteRecoverableFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewDataCiteClient(srv.URL, "u", "p", time.Second)
	err := client.Register(context.Background(), "10.5281/depository.7", registerMeta(), "https://depository.local/record/7")
	require.Error(t, err)
	require.True(t, IsRecoverable(err))
}

func TestDataCitePermanentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad metadata", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewDataCiteClient(srv.URL, "u", "p", time.Second)
	err := client.Reserve(context.Background(), "10.5281/depository.7", registerMeta())
	require.Error(t, err)
	require.False(t, IsRecoverable(err))
}

func TestDataCiteNetworkErrorIsRecoverable(t *testing.T) {
	client := NewDataCiteClient("http://127.0.0.1:1", "u", "p", 200*time.Millisecond)
	err := client.Delete(context.Background(), "10.5281/depository.7")
	require.Error(t, err)
	require.True(t, IsRecoverable(err))
}

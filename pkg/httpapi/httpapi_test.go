package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/common/models"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "Validation error.", []models.FieldError{
		{Field: "metadata.title", Code: 10, Message: "Title is required."},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env models.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, http.StatusBadRequest, env.Status)
	require.Equal(t, "Validation error.", env.Message)
	require.Len(t, env.Errors, 1)
	require.Equal(t, "metadata.title", env.Errors[0].Field)
}

func TestRequestContextRoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := models.RequestContext{UserID: "alice", Email: "alice@example.org"}

	ctx := WithRequestContext(req.Context(), rc)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "alice", got.UserID)

	_, ok = FromContext(req.Context())
	require.False(t, ok)
}

func TestOptionalAuthenticateAllowsAnonymous(t *testing.T) {
	var sawIdentity bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawIdentity = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := OptionalAuthenticate(nil)(next)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, sawIdentity)
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	handler := Authenticate(&OIDCAuthenticator{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/deposit/depositions", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:41234"
	require.Equal(t, "10.0.0.5", clientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	require.Equal(t, "198.51.100.7", clientIP(req))
}

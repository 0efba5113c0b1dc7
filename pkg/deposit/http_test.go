package deposit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sciforge/depository/pkg/blobstore"
	"github.com/sciforge/depository/pkg/common/models"
	"github.com/stretchr/testify/require"
)

func serviceErrorResponse(t *testing.T, err error) (int, models.ErrorEnvelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	writeServiceError(rec, err)

	var env models.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestFileValidationErrorsAreBadRequests(t *testing.T) {
	// Duplicate names and oversize uploads are validation failures on the
	// request, not conflicts: both come back as 400 with a field error.
	status, env := serviceErrorResponse(t, blobstore.ErrDuplicateFilename)
	require.Equal(t, http.StatusBadRequest, status)
	require.Len(t, env.Errors, 1)
	require.Equal(t, "filename", env.Errors[0].Field)

	status, env = serviceErrorResponse(t, blobstore.ErrFileTooLarge)
	require.Equal(t, http.StatusBadRequest, status)
	require.Len(t, env.Errors, 1)
	require.Equal(t, "file", env.Errors[0].Field)
}

func TestConflictStatusesStayConflicts(t *testing.T) {
	status, _ := serviceErrorResponse(t, ErrConcurrentModification)
	require.Equal(t, http.StatusConflict, status)

	status, _ = serviceErrorResponse(t, ErrHasSealedSIP)
	require.Equal(t, http.StatusConflict, status)
}

func TestServiceErrorStatuses(t *testing.T) {
	status, _ := serviceErrorResponse(t, ErrNotFound)
	require.Equal(t, http.StatusNotFound, status)

	status, _ = serviceErrorResponse(t, ErrForbidden)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = serviceErrorResponse(t, ErrInvalidState)
	require.Equal(t, http.StatusBadRequest, status)
}

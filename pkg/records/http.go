package records

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sciforge/depository/pkg/access"
	"github.com/sciforge/depository/pkg/blobstore"
	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/httpapi"
	"github.com/sciforge/depository/pkg/pidstore"
	"github.com/sciforge/depository/pkg/serializers"
)

// HTTPHandler serves the public read surface. Records resolve through their
// recid PID, so redirects and tombstones fall out of the PID status.
type HTTPHandler struct {
	store *Store
	pids  *pidstore.Store
	blobs *blobstore.Store
}

func NewHTTPHandler(store *Store, pids *pidstore.Store, blobs *blobstore.Store) *HTTPHandler {
	return &HTTPHandler{store: store, pids: pids, blobs: blobs}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/records/{recid}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/records/{recid}/files/{file_id}", h.handleFile).Methods(http.MethodGet)
}

// resolve walks the recid PID to its record, following at most one redirect
// hop.
func (h *HTTPHandler) resolve(r *http.Request) (*Record, *pidstore.PersistentIdentifier, int, error) {
	recid := mux.Vars(r)["recid"]

	pid, err := h.pids.Get(r.Context(), pidstore.TypeRecid, recid)
	if errors.Is(err, pidstore.ErrNotFound) {
		return nil, nil, http.StatusNotFound, fmt.Errorf("record not found")
	}
	if err != nil {
		return nil, nil, http.StatusInternalServerError, err
	}

	switch pid.Status {
	case pidstore.StatusDeleted:
		return nil, pid, http.StatusGone, fmt.Errorf("record removed")
	case pidstore.StatusRedirected:
		if pid.RedirectTo != nil {
			target, err := h.pids.GetByID(r.Context(), *pid.RedirectTo)
			if err == nil {
				pid = target
			}
		}
	case pidstore.StatusRegistered:
	default:
		// NEW or RESERVED: still a draft.
		return nil, pid, http.StatusNotFound, fmt.Errorf("record not found")
	}

	if pid.ObjectType != pidstore.ObjectTypeRecord || pid.ObjectUUID == nil {
		return nil, pid, http.StatusNotFound, fmt.Errorf("record not found")
	}

	rec, err := h.store.Get(r.Context(), *pid.ObjectUUID)
	if errors.Is(err, ErrGone) {
		return nil, pid, http.StatusGone, fmt.Errorf("record removed")
	}
	if errors.Is(err, ErrNotFound) {
		return nil, pid, http.StatusNotFound, fmt.Errorf("record not found")
	}
	if err != nil {
		return nil, pid, http.StatusInternalServerError, err
	}
	return rec, pid, http.StatusOK, nil
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, _, status, err := h.resolve(r)
	if err != nil {
		if status == http.StatusInternalServerError {
			logger.WithError(err).Error("record lookup failed")
			httpapi.WriteError(w, status, "Internal server error.", nil)
			return
		}
		httpapi.WriteError(w, status, err.Error(), nil)
		return
	}

	// Metadata is always public; the file listing is not.
	meta := rec.Metadata
	rc, _ := httpapi.FromContext(r.Context())
	if !access.Evaluate(&meta, rc, time.Now().UTC()) {
		meta.Files = nil
	}

	serialize, contentType := serializers.ForAccept(r.Header.Get("Accept"))
	body, err := serialize(&meta)
	if err != nil {
		logger.WithError(err).Error("record serialization failed")
		httpapi.WriteError(w, http.StatusInternalServerError, "Internal server error.", nil)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *HTTPHandler) handleFile(w http.ResponseWriter, r *http.Request) {
	rec, _, status, err := h.resolve(r)
	if err != nil {
		httpapi.WriteError(w, status, err.Error(), nil)
		return
	}

	rc, _ := httpapi.FromContext(r.Context())
	if !access.Evaluate(&rec.Metadata, rc, time.Now().UTC()) {
		httpapi.WriteError(w, http.StatusForbidden, "You do not have permission to access these files.", nil)
		return
	}

	fid, err := uuid.Parse(mux.Vars(r)["file_id"])
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "File not found.", nil)
		return
	}
	// The file must belong to this record's published file list.
	found := false
	for _, f := range rec.Metadata.Files {
		if f.FileID == fid.String() {
			found = true
			break
		}
	}
	if !found {
		httpapi.WriteError(w, http.StatusNotFound, "File not found.", nil)
		return
	}

	instance, rd, err := h.blobs.Open(r.Context(), fid)
	if err != nil {
		logger.WithError(err).Error("file open failed")
		httpapi.WriteError(w, http.StatusInternalServerError, "Internal server error.", nil)
		return
	}
	defer rd.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", instance.Key))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", instance.Size))
	io.Copy(w, rd)
}

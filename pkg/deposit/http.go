package deposit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sciforge/depository/pkg/blobstore"
	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/common/models"
	"github.com/sciforge/depository/pkg/httpapi"
	"github.com/sciforge/depository/pkg/observability/metrics"
	"github.com/sciforge/depository/pkg/records"
	"github.com/sciforge/depository/pkg/versioning"
)

type HTTPHandler struct {
	service       *Service
	maxBody       int64
	publishBudget time.Duration
}

func NewHTTPHandler(service *Service, maxBody int64, publishBudget time.Duration) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody, publishBudget: publishBudget}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/deposit/depositions", h.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/deposit/depositions", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/deposit/depositions/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/deposit/depositions/{id}", h.handleUpdate).Methods(http.MethodPut)
	router.HandleFunc("/deposit/depositions/{id}", h.handleDelete).Methods(http.MethodDelete)

	router.HandleFunc("/deposit/depositions/{id}/files", h.handleUpload).Methods(http.MethodPost)
	router.HandleFunc("/deposit/depositions/{id}/files", h.handleListFiles).Methods(http.MethodGet)
	router.HandleFunc("/deposit/depositions/{id}/files", h.handleReorder).Methods(http.MethodPut)
	router.HandleFunc("/deposit/depositions/{id}/files/{file_id}", h.handleGetFile).Methods(http.MethodGet)
	router.HandleFunc("/deposit/depositions/{id}/files/{file_id}", h.handleRenameFile).Methods(http.MethodPut)
	router.HandleFunc("/deposit/depositions/{id}/files/{file_id}", h.handleDeleteFile).Methods(http.MethodDelete)

	router.HandleFunc("/deposit/depositions/{id}/actions/publish", h.handlePublish).Methods(http.MethodPost)
	router.HandleFunc("/deposit/depositions/{id}/actions/edit", h.handleEdit).Methods(http.MethodPost)
	router.HandleFunc("/deposit/depositions/{id}/actions/discard", h.handleDiscard).Methods(http.MethodPost)
	router.HandleFunc("/deposit/depositions/{id}/actions/newversion", h.handleNewVersion).Methods(http.MethodPost)
	router.HandleFunc("/deposit/depositions/{id}/actions/prereserve", h.handlePrereserve).Methods(http.MethodPost)

	// Admin-only record removal; the public read surface lives elsewhere.
	router.HandleFunc("/records/{recid}", h.handleDeleteRecord).Methods(http.MethodDelete)
}

func (h *HTTPHandler) caller(w http.ResponseWriter, r *http.Request) (models.RequestContext, bool) {
	rc, ok := httpapi.FromContext(r.Context())
	if !ok {
		httpapi.WriteError(w, http.StatusUnauthorized, "Missing bearer token.", nil)
	}
	return rc, ok
}

func depidVar(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "Deposition not found.", nil)
		return 0, false
	}
	return id, true
}

func (h *HTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	dep, err := h.service.Create(r.Context(), rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, dep)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	deps, err := h.service.List(r.Context(), rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, deps)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	dep, err := h.service.Get(r.Context(), id, rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, dep)
}

type updateRequest struct {
	Metadata     models.RecordMetadata `json:"metadata"`
	MetadataOnly bool                  `json:"metadata_only,omitempty"`
}

func (h *HTTPHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	dep, err := h.service.UpdateDraft(r.Context(), id, rc, req.Metadata, req.MetadataOnly)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, dep)
}

func (h *HTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, rc); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpload accepts multipart/form-data with a `file` part and an
// optional `name` field overriding the filename.
func (h *HTTPHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Multipart field 'file' is required.", nil)
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	instance, err := h.service.UploadFile(r.Context(), id, rc, name, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	metrics.UploadBytes.Observe(float64(instance.Size))

	httpapi.WriteJSON(w, http.StatusCreated, models.FileInfo{
		ID:       instance.ID.String(),
		Filename: instance.Key,
		Checksum: instance.Checksum,
		Filesize: instance.Size,
	})
}

func (h *HTTPHandler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	files, err := h.service.ListFiles(r.Context(), id, rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]models.FileInfo, 0, len(files))
	for _, f := range files {
		out = append(out, models.FileInfo{
			ID:       f.ID.String(),
			Filename: f.Key,
			Checksum: f.Checksum,
			Filesize: f.Size,
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) handleGetFile(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	fid, err := uuid.Parse(mux.Vars(r)["file_id"])
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "File not found.", nil)
		return
	}
	files, err := h.service.ListFiles(r.Context(), id, rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	for _, f := range files {
		if f.ID == fid {
			httpapi.WriteJSON(w, http.StatusOK, models.FileInfo{
				ID:       f.ID.String(),
				Filename: f.Key,
				Checksum: f.Checksum,
				Filesize: f.Size,
			})
			return
		}
	}
	httpapi.WriteError(w, http.StatusNotFound, "File not found.", nil)
}

func (h *HTTPHandler) handleReorder(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}

	var req []struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	ids := make([]uuid.UUID, 0, len(req))
	for _, item := range req {
		fid, err := uuid.Parse(item.ID)
		if err != nil {
			httpapi.WriteError(w, http.StatusBadRequest, "Invalid file id.", nil)
			return
		}
		ids = append(ids, fid)
	}

	if err := h.service.ReorderFiles(r.Context(), id, rc, ids); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *HTTPHandler) handleRenameFile(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	fid, err := uuid.Parse(mux.Vars(r)["file_id"])
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "File not found.", nil)
		return
	}

	var req struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	if err := h.service.RenameFile(r.Context(), id, rc, fid, req.Filename); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *HTTPHandler) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	fid, err := uuid.Parse(mux.Vars(r)["file_id"])
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "File not found.", nil)
		return
	}
	if err := h.service.DeleteFile(r.Context(), id, rc, fid); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) handlePublish(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if h.publishBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.publishBudget)
		defer cancel()
	}

	recid, err := h.service.Publish(ctx, id, rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusAccepted, models.PublishResponse{RecordID: recid})
}

func (h *HTTPHandler) handleEdit(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	dep, err := h.service.Edit(r.Context(), id, rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, dep)
}

func (h *HTTPHandler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	dep, err := h.service.Discard(r.Context(), id, rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, dep)
}

func (h *HTTPHandler) handleNewVersion(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	dep, err := h.service.NewVersion(r.Context(), id, rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, dep)
}

func (h *HTTPHandler) handlePrereserve(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := depidVar(w, r)
	if !ok {
		return
	}
	value, err := h.service.PrereserveDOI(r.Context(), id, rc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, map[string]string{"doi": value})
}

func (h *HTTPHandler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.caller(w, r)
	if !ok {
		return
	}
	recid, err := strconv.ParseInt(mux.Vars(r)["recid"], 10, 64)
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, "Record not found.", nil)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Reason == "" {
		req.Reason = "removed by administrator"
	}

	if err := h.service.DeleteRecord(r.Context(), recid, rc, req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps engine errors onto the REST error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	if ve, ok := records.AsValidationError(err); ok {
		httpapi.WriteError(w, http.StatusBadRequest, "Validation error.", ve.Fields)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, blobstore.ErrNotFound), errors.Is(err, records.ErrNotFound):
		httpapi.WriteError(w, http.StatusNotFound, "Not found.", nil)
	case errors.Is(err, records.ErrGone):
		httpapi.WriteError(w, http.StatusGone, "Record removed.", nil)
	case errors.Is(err, ErrForbidden):
		httpapi.WriteError(w, http.StatusForbidden, "You are not allowed to access this deposition.", nil)
	case errors.Is(err, ErrInvalidState):
		httpapi.WriteError(w, http.StatusBadRequest, "Action not allowed in the current deposition state.", nil)
	case errors.Is(err, ErrConcurrentModification):
		httpapi.WriteError(w, http.StatusConflict, "The deposition was modified concurrently, please retry.", nil)
	case errors.Is(err, ErrHasSealedSIP):
		httpapi.WriteError(w, http.StatusConflict, "Published depositions cannot be deleted.", nil)
	case errors.Is(err, versioning.ErrDraftChildExists):
		httpapi.WriteError(w, http.StatusConflict, "A draft for the next version already exists.", nil)
	case errors.Is(err, blobstore.ErrDuplicateFilename):
		httpapi.WriteError(w, http.StatusBadRequest, "Validation error.", []models.FieldError{{
			Field:   "filename",
			Code:    records.CodeInvalid,
			Message: "A file with this name already exists.",
		}})
	case errors.Is(err, blobstore.ErrInvalidFilename):
		httpapi.WriteError(w, http.StatusBadRequest, "Validation error.", []models.FieldError{{
			Field:   "filename",
			Code:    records.CodeInvalid,
			Message: "Invalid filename.",
		}})
	case errors.Is(err, blobstore.ErrFileTooLarge):
		httpapi.WriteError(w, http.StatusBadRequest, "Validation error.", []models.FieldError{{
			Field:   "file",
			Code:    records.CodeInvalid,
			Message: "File exceeds the upload limit.",
		}})
	default:
		logger.WithError(err).Error("deposit request failed")
		httpapi.WriteError(w, http.StatusInternalServerError, "Internal server error.", nil)
	}
}

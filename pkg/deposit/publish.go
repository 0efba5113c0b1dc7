package deposit

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/blobstore"
	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/common/models"
	"github.com/sciforge/depository/pkg/observability/metrics"
	"github.com/sciforge/depository/pkg/outbox"
	"github.com/sciforge/depository/pkg/pidstore"
	"github.com/sciforge/depository/pkg/records"
	"github.com/sciforge/depository/pkg/versioning"
	"gorm.io/gorm"
)

// Publish turns the active draft into an immutable record. The record, the
// sealed package, the PID transitions and the outbox messages all commit in
// one transaction; the registrar and the search index are only ever touched
// by the worker draining the outbox.
//
// Publishing a deposition that is already done with no open edit is an
// idempotent no-op returning the existing record identifier.
func (s *Service) Publish(ctx context.Context, depid int64, rc models.RequestContext) (int64, error) {
	var recid int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.lockDeposition(tx, depid)
		if err != nil {
			return err
		}
		if err := checkOwner(m, rc); err != nil {
			return err
		}

		dep, err := m.toDeposition()
		if err != nil {
			return err
		}

		switch m.State {
		case StateDone:
			recid = m.Recid
			return nil
		case StateInProgress:
			if _, ok := dep.Drafts[DraftEdit]; !ok {
				return ErrInvalidState
			}
		case StateError:
			// Registrar exhaustion after the record committed. With no open
			// edit the content is unchanged: requeue the registrar work
			// instead of minting another revision and package.
			if m.RecordID != nil {
				if _, ok := dep.Drafts[DraftEdit]; !ok {
					recid = m.Recid
					return s.retryRegistration(ctx, tx, m)
				}
			}
		case StateUnsubmitted:
		default:
			return ErrInvalidState
		}

		name := activeDraftFor(dep)
		draft, ok := dep.Drafts[name]
		if !ok {
			return ErrInvalidState
		}
		meta := draft.Metadata

		blobs := s.blobs.WithTx(tx)
		files, err := blobs.ListByDeposition(ctx, m.ID)
		if err != nil {
			return err
		}
		if len(files) == 0 && !draft.MetadataOnly {
			return &records.ValidationError{Fields: []models.FieldError{{
				Field:   "files",
				Code:    records.CodeMissing,
				Message: "Minimum one file must be provided.",
			}}}
		}

		// Validate before allocating any identifier so a bad draft never
		// burns a recid.
		if err := records.Validate(&meta, s.recs.Registry(), time.Now().UTC()); err != nil {
			return err
		}
		if meta.DOI != "" && s.sel.IsBanned(meta.DOI) {
			return &records.ValidationError{Fields: []models.FieldError{{
				Field:   "metadata.doi",
				Code:    records.CodeInvalid,
				Message: "The prefix of this DOI is not allowed here.",
			}}}
		}

		if m.RecordID == nil {
			recid, err = s.publishFirst(ctx, tx, m, dep, &draft, meta, files, rc)
		} else {
			recid, err = s.publishRevision(ctx, tx, m, meta, files, rc)
		}
		if err != nil {
			return err
		}

		draft.Completed = true
		dep.Drafts[DraftDefault] = Draft{Metadata: meta, MetadataOnly: draft.MetadataOnly, Completed: true}
		delete(dep.Drafts, DraftEdit)
		raw, err := marshalDrafts(dep.Drafts)
		if err != nil {
			return err
		}
		m.Drafts = raw
		m.State = StateDone
		m.ErrorReason = ""
		m.UpdatedAt = time.Now().UTC()
		return tx.Save(m).Error
	})
	if err != nil {
		metrics.PublishFailures.WithLabelValues(failureKind(err)).Inc()
		return 0, err
	}
	metrics.PublishesTotal.Inc()
	return recid, nil
}

// publishFirst handles the first publication of a deposition: identifier
// allocation, DOI reservation, concept creation (or draft-child promotion
// for a new version), the record write and the sealed package.
func (s *Service) publishFirst(ctx context.Context, tx *gorm.DB, m *depositionModel, dep *Deposition,
	draft *Draft, meta models.RecordMetadata, files []blobstore.FileInstance, rc models.RequestContext) (int64, error) {

	pids := s.pids.WithTx(tx)
	recs := s.recs.WithTx(tx)
	sips := s.sips.WithTx(tx)
	graph := s.graph.WithTx(tx)
	box := s.box.WithTx(tx)

	// Record identifier; may already exist from a DOI pre-reservation or
	// from opening a new version.
	var recidPid *pidstore.PersistentIdentifier
	var err error
	if m.Recid == 0 {
		m.Recid, err = pids.NextRecid(ctx)
		if err != nil {
			return 0, err
		}
		recidPid, err = pids.Create(ctx, pidstore.TypeRecid, strconv.FormatInt(m.Recid, 10), "", pidstore.ObjectTypeDeposition, &m.ID)
	} else {
		recidPid, err = pids.Get(ctx, pidstore.TypeRecid, strconv.FormatInt(m.Recid, 10))
	}
	if err != nil {
		return 0, err
	}

	// DOI: user-supplied values outside our prefix are external and need no
	// registrar call; empty means we mint under the local prefix.
	doiValue := meta.DOI
	external := false
	if doiValue == "" {
		doiValue = s.sel.LocalDOI(m.Recid)
	} else if !s.sel.IsManaged(doiValue) {
		external = true
	}

	doiPid, err := pids.Get(ctx, pidstore.TypeDOI, doiValue)
	if errors.Is(err, pidstore.ErrNotFound) {
		provider := "datacite"
		if external {
			provider = "external"
		}
		doiPid, err = pids.Create(ctx, pidstore.TypeDOI, doiValue, provider, pidstore.ObjectTypeDeposition, &m.ID)
		if err != nil {
			return 0, err
		}
		if external {
			// Nothing to do remotely; the DOI already resolves elsewhere.
			if err := pids.Register(ctx, doiPid, "external DOI recorded"); err != nil {
				return 0, err
			}
		} else if err := pids.Reserve(ctx, doiPid, "reserved for publication"); err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	// Concept: first version of new work mints the concept identifier;
	// a new version of existing work joins the existing concept.
	var conceptPid *pidstore.PersistentIdentifier
	newConcept := m.ConceptRecid == ""
	if newConcept {
		cn, err := pids.NextRecid(ctx)
		if err != nil {
			return 0, err
		}
		m.ConceptRecid = strconv.FormatInt(cn, 10)
		conceptPid, err = pids.Create(ctx, pidstore.TypeConceptRecid, m.ConceptRecid, "", "", nil)
		if err != nil {
			return 0, err
		}
		if err := pids.Register(ctx, conceptPid, "concept identifier minted"); err != nil {
			return 0, err
		}
		if err := graph.CreateConcept(ctx, conceptPid.ID, recidPid.ID); err != nil {
			return 0, err
		}
	} else {
		conceptPid, err = pids.LockForUpdate(ctx, pidstore.TypeConceptRecid, m.ConceptRecid)
		if err != nil {
			return 0, err
		}
	}

	// The concept DOI exists only for managed version DOIs: external DOIs
	// on the first version leave the concept without one.
	conceptDOI := ""
	var conceptDoiPid *pidstore.PersistentIdentifier
	if !external {
		conceptDOI = s.sel.ConceptDOI(m.ConceptRecid)
		conceptDoiPid, err = pids.Get(ctx, pidstore.TypeDOI, conceptDOI)
		if errors.Is(err, pidstore.ErrNotFound) {
			conceptDoiPid, err = pids.Create(ctx, pidstore.TypeDOI, conceptDOI, "datacite", "", nil)
			if err != nil {
				return 0, err
			}
			if err := pids.Reserve(ctx, conceptDoiPid, "concept DOI reserved"); err != nil {
				return 0, err
			}
		} else if err != nil {
			return 0, err
		}
	}

	recMeta := s.buildRecordMetadata(meta, m, doiValue, conceptDOI, files)
	rec, err := recs.Create(ctx, &recMeta)
	if err != nil {
		return 0, err
	}
	m.RecordID = &rec.ID
	m.DOI = doiValue
	m.ConceptDOI = conceptDOI

	// Flip the recid from draft to published: bind to the record and
	// register locally. This is what removes the draft-child marker.
	if err := pids.Bind(ctx, recidPid, pidstore.ObjectTypeRecord, rec.ID); err != nil {
		return 0, err
	}
	if err := pids.Register(ctx, recidPid, "record published"); err != nil {
		return 0, err
	}
	if err := pids.Bind(ctx, doiPid, pidstore.ObjectTypeRecord, rec.ID); err != nil {
		return 0, err
	}

	oaiPid, err := pids.Create(ctx, pidstore.TypeOAI, recMeta.OAIIdentifier, "", pidstore.ObjectTypeRecord, &rec.ID)
	if err != nil {
		return 0, err
	}
	if err := pids.Register(ctx, oaiPid, "OAI identifier minted"); err != nil {
		return 0, err
	}

	agent := models.Agent{Email: rc.Email, IP: rc.IP, UserID: rc.UserID}
	if _, err := sips.Seal(ctx, &rec.Metadata, files, agent, recidPid.ID); err != nil {
		return 0, err
	}

	if err := graph.PromoteChild(ctx, conceptPid.ID, recidPid.ID); err != nil {
		return 0, err
	}

	if !external {
		if _, err := box.Enqueue(ctx, s.opts.PIDTopic, outbox.KindRegisterDOI, map[string]interface{}{
			"doi":       doiValue,
			"depid":     m.Depid,
			"record_id": rec.ID.String(),
			"landing":   s.landingURL(m.Recid),
		}); err != nil {
			return 0, err
		}
		if conceptDoiPid != nil && conceptDoiPid.Status == pidstore.StatusReserved {
			if _, err := box.Enqueue(ctx, s.opts.PIDTopic, outbox.KindRegisterDOI, map[string]interface{}{
				"doi":       conceptDOI,
				"depid":     m.Depid,
				"record_id": rec.ID.String(),
				"landing":   s.opts.SiteURL + "/record/" + m.ConceptRecid,
			}); err != nil {
				return 0, err
			}
		}
	}
	if _, err := box.Enqueue(ctx, s.opts.IndexTopic, outbox.KindIndexRecord, map[string]interface{}{
		"record_id": rec.ID.String(),
		"depid":     m.Depid,
	}); err != nil {
		return 0, err
	}

	logger.WithFields(map[string]interface{}{
		"depid": m.Depid,
		"recid": m.Recid,
		"doi":   doiValue,
	}).Info("deposition published")
	return m.Recid, nil
}

// publishRevision commits an open edit as the next revision of the already
// published record. Identifiers never change; the registrar receives a
// metadata update, or the initial registration if the first one never went
// through.
func (s *Service) publishRevision(ctx context.Context, tx *gorm.DB, m *depositionModel,
	meta models.RecordMetadata, files []blobstore.FileInstance, rc models.RequestContext) (int64, error) {

	pids := s.pids.WithTx(tx)
	recs := s.recs.WithTx(tx)
	sips := s.sips.WithTx(tx)
	box := s.box.WithTx(tx)

	recMeta := s.buildRecordMetadata(meta, m, m.DOI, m.ConceptDOI, files)
	rec, err := recs.Update(ctx, *m.RecordID, &recMeta)
	if err != nil {
		return 0, err
	}

	recidPid, err := pids.Get(ctx, pidstore.TypeRecid, strconv.FormatInt(m.Recid, 10))
	if err != nil {
		return 0, err
	}

	agent := models.Agent{Email: rc.Email, IP: rc.IP, UserID: rc.UserID}
	if _, err := sips.Seal(ctx, &rec.Metadata, files, agent, recidPid.ID); err != nil {
		return 0, err
	}

	if s.sel.IsManaged(m.DOI) {
		doiPid, err := pids.Get(ctx, pidstore.TypeDOI, m.DOI)
		if err != nil {
			return 0, err
		}
		if _, err := box.Enqueue(ctx, s.opts.PIDTopic, revisionDOIKind(doiPid.Status), map[string]interface{}{
			"doi":       m.DOI,
			"depid":     m.Depid,
			"record_id": rec.ID.String(),
			"landing":   s.landingURL(m.Recid),
		}); err != nil {
			return 0, err
		}
	}
	if _, err := box.Enqueue(ctx, s.opts.IndexTopic, outbox.KindIndexRecord, map[string]interface{}{
		"record_id": rec.ID.String(),
		"depid":     m.Depid,
	}); err != nil {
		return 0, err
	}

	logger.WithFields(map[string]interface{}{
		"depid":    m.Depid,
		"recid":    m.Recid,
		"revision": rec.Revision,
	}).Info("revision published")
	return m.Recid, nil
}

// revisionDOIKind picks the registrar action enqueued for a revision. A DOI
// whose first registration never succeeded is still RESERVED and must be
// registered, not updated.
func revisionDOIKind(status pidstore.Status) string {
	if status == pidstore.StatusRegistered || status == pidstore.StatusRedirected {
		return outbox.KindUpdateDOI
	}
	return outbox.KindRegisterDOI
}

// retryRegistration handles publish on an errored deposition whose content is
// unchanged: the record and sealed package already exist, so only the pending
// registrar actions are enqueued again.
func (s *Service) retryRegistration(ctx context.Context, tx *gorm.DB, m *depositionModel) error {
	pids := s.pids.WithTx(tx)
	box := s.box.WithTx(tx)

	if m.DOI != "" && s.sel.IsManaged(m.DOI) {
		doiPid, err := pids.Get(ctx, pidstore.TypeDOI, m.DOI)
		if err != nil {
			return err
		}
		if doiPid.Status != pidstore.StatusRegistered {
			if _, err := box.Enqueue(ctx, s.opts.PIDTopic, outbox.KindRegisterDOI, map[string]interface{}{
				"doi":       m.DOI,
				"depid":     m.Depid,
				"record_id": m.RecordID.String(),
				"landing":   s.landingURL(m.Recid),
			}); err != nil {
				return err
			}
		}
		if m.ConceptDOI != "" {
			conceptPid, err := pids.Get(ctx, pidstore.TypeDOI, m.ConceptDOI)
			if err != nil && !errors.Is(err, pidstore.ErrNotFound) {
				return err
			}
			if err == nil && conceptPid.Status == pidstore.StatusReserved {
				if _, err := box.Enqueue(ctx, s.opts.PIDTopic, outbox.KindRegisterDOI, map[string]interface{}{
					"doi":       m.ConceptDOI,
					"depid":     m.Depid,
					"record_id": m.RecordID.String(),
					"landing":   s.opts.SiteURL + "/record/" + m.ConceptRecid,
				}); err != nil {
					return err
				}
			}
		}
	}

	m.State = StateDone
	m.ErrorReason = ""
	m.UpdatedAt = time.Now().UTC()
	if err := tx.Save(m).Error; err != nil {
		return err
	}
	logger.WithFields(map[string]interface{}{
		"depid": m.Depid,
		"recid": m.Recid,
		"doi":   m.DOI,
	}).Info("registrar actions requeued")
	return nil
}

// Edit reopens a published deposition: the published metadata is copied into
// an edit draft and the deposition returns to inprogress. The record itself
// stays published and readable throughout.
func (s *Service) Edit(ctx context.Context, depid int64, rc models.RequestContext) (*Deposition, error) {
	var out *Deposition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.lockDeposition(tx, depid)
		if err != nil {
			return err
		}
		if err := checkOwner(m, rc); err != nil {
			return err
		}
		if m.State != StateDone || m.RecordID == nil {
			return ErrInvalidState
		}

		rec, err := s.recs.WithTx(tx).Get(ctx, *m.RecordID)
		if err != nil {
			return err
		}

		dep, err := m.toDeposition()
		if err != nil {
			return err
		}
		dep.Drafts[DraftEdit] = Draft{Metadata: rec.Metadata, MetadataOnly: len(rec.Metadata.Files) == 0}
		raw, err := marshalDrafts(dep.Drafts)
		if err != nil {
			return err
		}
		m.Drafts = raw
		m.State = StateInProgress
		m.UpdatedAt = time.Now().UTC()
		if err := tx.Save(m).Error; err != nil {
			return err
		}
		out, err = m.toDeposition()
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Discard throws away an open edit and returns the deposition to done. The
// published record is untouched.
func (s *Service) Discard(ctx context.Context, depid int64, rc models.RequestContext) (*Deposition, error) {
	var out *Deposition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.lockDeposition(tx, depid)
		if err != nil {
			return err
		}
		if err := checkOwner(m, rc); err != nil {
			return err
		}
		if m.State != StateInProgress {
			return ErrInvalidState
		}

		dep, err := m.toDeposition()
		if err != nil {
			return err
		}
		delete(dep.Drafts, DraftEdit)
		raw, err := marshalDrafts(dep.Drafts)
		if err != nil {
			return err
		}
		m.Drafts = raw
		m.State = StateDone
		m.UpdatedAt = time.Now().UTC()
		if err := tx.Save(m).Error; err != nil {
			return err
		}
		out, err = m.toDeposition()
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NewVersion opens a fresh deposition under the same concept, carrying over
// the published metadata but none of the files. Only one draft version may
// exist per concept at a time.
func (s *Service) NewVersion(ctx context.Context, depid int64, rc models.RequestContext) (*Deposition, error) {
	parent, err := s.load(ctx, s.db, depid)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(parent, rc); err != nil {
		return nil, err
	}
	if parent.State != StateDone || parent.RecordID == nil || parent.ConceptRecid == "" {
		return nil, ErrInvalidState
	}

	unlock, err := s.graph.LockConcept(ctx, parent.ConceptRecid)
	if errors.Is(err, versioning.ErrConceptLocked) {
		return nil, ErrConcurrentModification
	}
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *Deposition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pids := s.pids.WithTx(tx)
		graph := s.graph.WithTx(tx)

		conceptPid, err := pids.LockForUpdate(ctx, pidstore.TypeConceptRecid, parent.ConceptRecid)
		if err != nil {
			return err
		}
		if existing, err := graph.DraftChild(ctx, conceptPid.ID); err != nil {
			return err
		} else if existing != nil {
			return versioning.ErrDraftChildExists
		}

		rec, err := s.recs.WithTx(tx).Get(ctx, *parent.RecordID)
		if err != nil {
			return err
		}
		meta := carryOverMetadata(rec.Metadata)

		newDepid, err := pids.NextDepid(ctx)
		if err != nil {
			return err
		}
		newRecid, err := pids.NextRecid(ctx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		drafts, err := marshalDrafts(map[string]Draft{DraftDefault: {Metadata: meta}})
		if err != nil {
			return err
		}
		child := &depositionModel{
			ID:           uuid.New(),
			Depid:        newDepid,
			Owner:        parent.Owner,
			OwnerEmail:   parent.OwnerEmail,
			State:        StateUnsubmitted,
			Drafts:       drafts,
			ConceptRecid: parent.ConceptRecid,
			Recid:        newRecid,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(child).Error; err != nil {
			return err
		}

		depidPid, err := pids.Create(ctx, pidstore.TypeDepid, strconv.FormatInt(newDepid, 10), "", pidstore.ObjectTypeDeposition, &child.ID)
		if err != nil {
			return err
		}
		if err := pids.Register(ctx, depidPid, "deposition created"); err != nil {
			return err
		}

		recidPid, err := pids.Create(ctx, pidstore.TypeRecid, strconv.FormatInt(newRecid, 10), "", pidstore.ObjectTypeDeposition, &child.ID)
		if err != nil {
			return err
		}
		if _, err := graph.AddDraftChild(ctx, conceptPid.ID, recidPid.ID); err != nil {
			return err
		}

		out, err = child.toDeposition()
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRecord tombstones a published record. Readers get 410 afterwards,
// the managed DOI is deactivated at the registrar and the search document is
// removed. Sealed packages are kept; only admins may do this.
func (s *Service) DeleteRecord(ctx context.Context, recid int64, rc models.RequestContext, reason string) error {
	if !rc.Admin {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pids := s.pids.WithTx(tx)
		recs := s.recs.WithTx(tx)
		box := s.box.WithTx(tx)

		pid, err := pids.Get(ctx, pidstore.TypeRecid, strconv.FormatInt(recid, 10))
		if errors.Is(err, pidstore.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if pid.ObjectType != pidstore.ObjectTypeRecord || pid.ObjectUUID == nil {
			return ErrNotFound
		}

		if err := recs.Delete(ctx, *pid.ObjectUUID); err != nil {
			return err
		}
		if err := pids.Delete(ctx, pid, reason); err != nil {
			return err
		}

		var m depositionModel
		if err := tx.First(&m, "record_id = ?", pid.ObjectUUID).Error; err == nil {
			if m.DOI != "" && s.sel.IsManaged(m.DOI) {
				if _, err := box.Enqueue(ctx, s.opts.PIDTopic, outbox.KindDeleteDOI, map[string]interface{}{
					"doi":   m.DOI,
					"depid": m.Depid,
				}); err != nil {
					return err
				}
			}
		}
		if _, err := box.Enqueue(ctx, s.opts.IndexTopic, outbox.KindRemoveRecord, map[string]interface{}{
			"record_id": pid.ObjectUUID.String(),
		}); err != nil {
			return err
		}

		logger.WithFields(map[string]interface{}{
			"recid":  recid,
			"reason": reason,
		}).Info("record removed")
		return nil
	})
}

// buildRecordMetadata assembles the published document from the draft and
// the engine-owned identifier fields.
func (s *Service) buildRecordMetadata(meta models.RecordMetadata, m *depositionModel,
	doiValue, conceptDOI string, files []blobstore.FileInstance) models.RecordMetadata {

	meta.Recid = m.Recid
	meta.ConceptRecid = m.ConceptRecid
	meta.DOI = doiValue
	meta.ConceptDOI = conceptDOI
	meta.OAIIdentifier = fmt.Sprintf("oai:%s:recid/%d", s.opts.OAIDomain, m.Recid)
	meta.Owner = m.Owner
	meta.Files = nil
	for _, f := range files {
		meta.Files = append(meta.Files, models.RecordFile{
			FileID:   f.ID.String(),
			Key:      f.Key,
			Checksum: f.Algorithm + ":" + f.Checksum,
			Size:     f.Size,
			Type:     fileType(f.Key),
		})
	}
	return meta
}

func (s *Service) landingURL(recid int64) string {
	return fmt.Sprintf("%s/record/%d", s.opts.SiteURL, recid)
}

// carryOverMetadata seeds a new version's draft from the previous version,
// dropping everything the engine re-mints on publish.
func carryOverMetadata(meta models.RecordMetadata) models.RecordMetadata {
	meta.Schema = ""
	meta.Recid = 0
	meta.DOI = ""
	meta.ConceptDOI = ""
	meta.OAIIdentifier = ""
	meta.Files = nil
	return meta
}

// activeDraftFor resolves which draft a publish applies to, tolerating the
// error state where the previous attempt may have come from either draft.
func activeDraftFor(dep *Deposition) string {
	if _, ok := dep.Drafts[DraftEdit]; ok {
		return DraftEdit
	}
	return DraftDefault
}

func fileType(key string) string {
	ext := path.Ext(key)
	if ext == "" {
		return ""
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return ext[1:]
}

func failureKind(err error) string {
	switch {
	case records.IsValidationError(err):
		return "validation"
	case errors.Is(err, ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, ErrInvalidState):
		return "state"
	case errors.Is(err, versioning.ErrDraftChildExists):
		return "draft_exists"
	default:
		return "internal"
	}
}

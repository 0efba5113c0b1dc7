package deposit

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/blobstore"
	"github.com/sciforge/depository/pkg/common/models"
	"github.com/sciforge/depository/pkg/doi"
	"github.com/sciforge/depository/pkg/outbox"
	"github.com/sciforge/depository/pkg/pidstore"
	"github.com/sciforge/depository/pkg/records"
	"github.com/sciforge/depository/pkg/sipstore"
	"github.com/sciforge/depository/pkg/versioning"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options carries the engine's deployment knobs.
type Options struct {
	SiteURL    string
	OAIDomain  string
	PIDTopic   string
	IndexTopic string
}

// Service is the deposit engine. All collaborators are injected; the engine
// owns the transaction boundaries.
type Service struct {
	db    *gorm.DB
	pids  *pidstore.Store
	blobs *blobstore.Store
	recs  *records.Store
	sips  *sipstore.Store
	graph *versioning.Graph
	sel   *doi.Selector
	box   *outbox.Outbox
	opts  Options
}

func NewService(db *gorm.DB, pids *pidstore.Store, blobs *blobstore.Store, recs *records.Store,
	sips *sipstore.Store, graph *versioning.Graph, sel *doi.Selector, box *outbox.Outbox, opts Options) *Service {
	return &Service{
		db:    db,
		pids:  pids,
		blobs: blobs,
		recs:  recs,
		sips:  sips,
		graph: graph,
		sel:   sel,
		box:   box,
		opts:  opts,
	}
}

func (s *Service) AutoMigrate() error {
	return s.db.AutoMigrate(&depositionModel{})
}

// Create opens a fresh unsubmitted deposition for the caller.
func (s *Service) Create(ctx context.Context, rc models.RequestContext) (*Deposition, error) {
	var out *Deposition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pids := s.pids.WithTx(tx)

		depid, err := pids.NextDepid(ctx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		drafts, err := marshalDrafts(map[string]Draft{DraftDefault: {}})
		if err != nil {
			return err
		}
		m := &depositionModel{
			ID:         uuid.New(),
			Depid:      depid,
			Owner:      rc.UserID,
			OwnerEmail: rc.Email,
			State:      StateUnsubmitted,
			Drafts:     drafts,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}

		pid, err := pids.Create(ctx, pidstore.TypeDepid, strconv.FormatInt(depid, 10), "", pidstore.ObjectTypeDeposition, &m.ID)
		if err != nil {
			return err
		}
		if err := pids.Register(ctx, pid, "deposition created"); err != nil {
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

func (s *Service) Get(ctx context.Context, depid int64, rc models.RequestContext) (*Deposition, error) {
	m, err := s.load(ctx, s.db, depid)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(m, rc); err != nil {
		return nil, err
	}
	dep, err := m.toDeposition()
	if err != nil {
		return nil, err
	}
	return s.attachFiles(ctx, dep)
}

// List returns the caller's depositions; admins see everything.
func (s *Service) List(ctx context.Context, rc models.RequestContext) ([]Deposition, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if !rc.Admin {
		q = q.Where("owner = ?", rc.UserID)
	}
	var rows []depositionModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Deposition, 0, len(rows))
	for i := range rows {
		dep, err := rows[i].toDeposition()
		if err != nil {
			return nil, err
		}
		out = append(out, *dep)
	}
	return out, nil
}

// UpdateDraft writes form values into the active draft. Allowed while
// unsubmitted or while an edit is open.
func (s *Service) UpdateDraft(ctx context.Context, depid int64, rc models.RequestContext, meta models.RecordMetadata, metadataOnly bool) (*Deposition, error) {
	var out *Deposition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.lockDeposition(tx, depid)
		if err != nil {
			return err
		}
		if err := checkOwner(m, rc); err != nil {
			return err
		}
		if m.State != StateUnsubmitted && m.State != StateInProgress {
			return ErrInvalidState
		}

		dep, err := m.toDeposition()
		if err != nil {
			return err
		}
		name := ActiveDraftName(m.State)
		draft := dep.Drafts[name]
		draft.Metadata = meta
		draft.MetadataOnly = metadataOnly
		dep.Drafts[name] = draft

		raw, err := marshalDrafts(dep.Drafts)
		if err != nil {
			return err
		}
		m.Drafts = raw
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

// Delete removes a deposition. Only allowed while unsubmitted and never once
// a sealed package exists.
func (s *Service) Delete(ctx context.Context, depid int64, rc models.RequestContext) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.lockDeposition(tx, depid)
		if err != nil {
			return err
		}
		if err := checkOwner(m, rc); err != nil {
			return err
		}
		if m.State != StateUnsubmitted {
			return ErrInvalidState
		}

		pids := s.pids.WithTx(tx)
		sips := s.sips.WithTx(tx)
		blobs := s.blobs.WithTx(tx)

		if m.Recid != 0 {
			recidPid, err := pids.Get(ctx, pidstore.TypeRecid, strconv.FormatInt(m.Recid, 10))
			if err == nil {
				n, err := sips.CountForPid(ctx, recidPid.ID)
				if err != nil {
					return err
				}
				if n > 0 {
					return ErrHasSealedSIP
				}
				if err := pids.Delete(ctx, recidPid, "deposition discarded before publication"); err != nil {
					return err
				}
			}
		}

		files, err := blobs.ListByDeposition(ctx, m.ID)
		if err != nil {
			return err
		}
		for _, f := range files {
			if err := blobs.SoftDelete(ctx, f.ID); err != nil {
				return err
			}
		}

		depidPid, err := pids.Get(ctx, pidstore.TypeDepid, strconv.FormatInt(m.Depid, 10))
		if err == nil {
			if err := pids.Delete(ctx, depidPid, "deposition deleted"); err != nil {
				return err
			}
		}

		return tx.Delete(&depositionModel{}, "id = ?", m.ID).Error
	})
}

// UploadFile streams a new file into the deposition's blob store.
func (s *Service) UploadFile(ctx context.Context, depid int64, rc models.RequestContext, filename string, r io.Reader) (*blobstore.FileInstance, error) {
	m, err := s.load(ctx, s.db, depid)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(m, rc); err != nil {
		return nil, err
	}
	if m.State != StateUnsubmitted {
		return nil, ErrInvalidState
	}
	return s.blobs.Put(ctx, m.ID, filename, r)
}

func (s *Service) ListFiles(ctx context.Context, depid int64, rc models.RequestContext) ([]blobstore.FileInstance, error) {
	m, err := s.load(ctx, s.db, depid)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(m, rc); err != nil {
		return nil, err
	}
	return s.blobs.ListByDeposition(ctx, m.ID)
}

func (s *Service) DeleteFile(ctx context.Context, depid int64, rc models.RequestContext, fileID uuid.UUID) error {
	m, err := s.load(ctx, s.db, depid)
	if err != nil {
		return err
	}
	if err := checkOwner(m, rc); err != nil {
		return err
	}
	if m.State != StateUnsubmitted {
		return ErrInvalidState
	}
	f, err := s.blobs.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if f.DepositionID != m.ID {
		return blobstore.ErrNotFound
	}
	return s.blobs.SoftDelete(ctx, fileID)
}

func (s *Service) RenameFile(ctx context.Context, depid int64, rc models.RequestContext, fileID uuid.UUID, newName string) error {
	m, err := s.load(ctx, s.db, depid)
	if err != nil {
		return err
	}
	if err := checkOwner(m, rc); err != nil {
		return err
	}
	if m.State != StateUnsubmitted {
		return ErrInvalidState
	}
	return s.blobs.Rename(ctx, fileID, newName)
}

func (s *Service) ReorderFiles(ctx context.Context, depid int64, rc models.RequestContext, orderedIDs []uuid.UUID) error {
	m, err := s.load(ctx, s.db, depid)
	if err != nil {
		return err
	}
	if err := checkOwner(m, rc); err != nil {
		return err
	}
	if m.State != StateUnsubmitted {
		return ErrInvalidState
	}
	return s.blobs.Reorder(ctx, m.ID, orderedIDs)
}

// PrereserveDOI allocates the record identifier early and reserves the
// matching managed DOI so users can cite it before publishing.
func (s *Service) PrereserveDOI(ctx context.Context, depid int64, rc models.RequestContext) (string, error) {
	var value string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := s.lockDeposition(tx, depid)
		if err != nil {
			return err
		}
		if err := checkOwner(m, rc); err != nil {
			return err
		}
		if m.State != StateUnsubmitted {
			return ErrInvalidState
		}

		pids := s.pids.WithTx(tx)
		if m.Recid == 0 {
			n, err := pids.NextRecid(ctx)
			if err != nil {
				return err
			}
			m.Recid = n
			if _, err := pids.Create(ctx, pidstore.TypeRecid, strconv.FormatInt(n, 10), "", pidstore.ObjectTypeDeposition, &m.ID); err != nil {
				return err
			}
		}

		value = s.sel.LocalDOI(m.Recid)
		doiPid, err := pids.Get(ctx, pidstore.TypeDOI, value)
		if errors.Is(err, pidstore.ErrNotFound) {
			doiPid, err = pids.Create(ctx, pidstore.TypeDOI, value, "datacite", pidstore.ObjectTypeDeposition, &m.ID)
			if err != nil {
				return err
			}
			if err := pids.Reserve(ctx, doiPid, "DOI pre-reserved"); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		m.DOI = value
		m.UpdatedAt = time.Now().UTC()
		return tx.Save(m).Error
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// MarkError flags a deposition with a sticky operator-visible reason. The
// worker calls this after exhausting registrar retries.
func (s *Service) MarkError(ctx context.Context, depid int64, reason string) error {
	return s.db.WithContext(ctx).Model(&depositionModel{}).
		Where("depid = ?", depid).
		Updates(map[string]interface{}{
			"state":        StateError,
			"error_reason": reason,
			"updated_at":   time.Now().UTC(),
		}).Error
}

// ClearError returns an errored deposition to done once a retry succeeds.
func (s *Service) ClearError(ctx context.Context, depid int64) error {
	return s.db.WithContext(ctx).Model(&depositionModel{}).
		Where("depid = ? AND state = ?", depid, StateError).
		Updates(map[string]interface{}{
			"state":        StateDone,
			"error_reason": "",
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (s *Service) load(ctx context.Context, db *gorm.DB, depid int64) (*depositionModel, error) {
	var m depositionModel
	result := db.WithContext(ctx).First(&m, "depid = ?", depid)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &m, result.Error
}

// lockDeposition serializes per-deposition operations via a NOWAIT row
// lock; a held lock surfaces as ErrConcurrentModification.
func (s *Service) lockDeposition(tx *gorm.DB, depid int64) (*depositionModel, error) {
	var m depositionModel
	result := tx.
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&m, "depid = ?", depid)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "could not obtain lock") ||
			strings.Contains(result.Error.Error(), "lock not available") {
			return nil, ErrConcurrentModification
		}
		return nil, result.Error
	}
	return &m, nil
}

func (s *Service) attachFiles(ctx context.Context, dep *Deposition) (*Deposition, error) {
	files, err := s.blobs.ListByDeposition(ctx, dep.ID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		dep.Files = append(dep.Files, models.FileInfo{
			ID:       f.ID.String(),
			Filename: f.Key,
			Checksum: f.Checksum,
			Filesize: f.Size,
		})
	}
	return dep, nil
}

func checkOwner(m *depositionModel, rc models.RequestContext) error {
	if rc.Admin || m.Owner == rc.UserID {
		return nil
	}
	return ErrForbidden
}

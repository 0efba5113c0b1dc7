package deposit

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/common/models"
	"gorm.io/datatypes"
)

const (
	StateUnsubmitted = "unsubmitted"
	StateInProgress  = "inprogress"
	StateDone        = "done"
	StateError       = "error"
)

// Draft names inside a deposition.
const (
	DraftDefault = "_default"
	DraftEdit    = "_edit"
)

var (
	ErrNotFound               = errors.New("deposition not found")
	ErrForbidden              = errors.New("not the owner of this deposition")
	ErrInvalidState           = errors.New("action not allowed in current deposition state")
	ErrConcurrentModification = errors.New("deposition changed concurrently, please retry")
	ErrHasSealedSIP           = errors.New("deposition has sealed packages and cannot be deleted")
)

// Draft holds one named set of form values plus its completion flag.
type Draft struct {
	Metadata     models.RecordMetadata `json:"metadata"`
	MetadataOnly bool                  `json:"metadata_only,omitempty"`
	Completed    bool                  `json:"completed"`
}

type depositionModel struct {
	ID           uuid.UUID      `gorm:"primaryKey;column:id"`
	Depid        int64          `gorm:"column:depid;uniqueIndex"`
	Owner        string         `gorm:"column:owner;index"`
	OwnerEmail   string         `gorm:"column:owner_email"`
	State        string         `gorm:"column:state"`
	Drafts       datatypes.JSON `gorm:"column:drafts"`
	ConceptRecid string         `gorm:"column:concept_recid;index"`
	Recid        int64          `gorm:"column:recid"`
	RecordID     *uuid.UUID     `gorm:"column:record_id"`
	DOI          string         `gorm:"column:doi"`
	ConceptDOI   string         `gorm:"column:concept_doi"`
	ErrorReason  string         `gorm:"column:error_reason"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
}

func (depositionModel) TableName() string { return "depositions" }

// Deposition is the mutable work-in-progress a user accumulates files and
// metadata on before publishing.
type Deposition struct {
	ID           uuid.UUID        `json:"id"`
	Depid        int64            `json:"depid"`
	Owner        string           `json:"owner"`
	State        string           `json:"state"`
	Drafts       map[string]Draft `json:"drafts,omitempty"`
	ConceptRecid string           `json:"conceptrecid,omitempty"`
	Recid        int64            `json:"recid,omitempty"`
	RecordID     *uuid.UUID       `json:"record_id,omitempty"`
	DOI          string           `json:"doi,omitempty"`
	ConceptDOI   string           `json:"conceptdoi,omitempty"`
	ErrorReason  string           `json:"error_reason,omitempty"`
	Created      time.Time        `json:"created"`
	Modified     time.Time        `json:"modified"`

	Files []models.FileInfo `json:"files,omitempty"`
	Links map[string]string `json:"links,omitempty"`
}

func (m *depositionModel) toDeposition() (*Deposition, error) {
	dep := &Deposition{
		ID:           m.ID,
		Depid:        m.Depid,
		Owner:        m.Owner,
		State:        m.State,
		ConceptRecid: m.ConceptRecid,
		Recid:        m.Recid,
		RecordID:     m.RecordID,
		DOI:          m.DOI,
		ConceptDOI:   m.ConceptDOI,
		ErrorReason:  m.ErrorReason,
		Created:      m.CreatedAt,
		Modified:     m.UpdatedAt,
	}
	if len(m.Drafts) > 0 {
		if err := json.Unmarshal(m.Drafts, &dep.Drafts); err != nil {
			return nil, err
		}
	}
	if dep.Drafts == nil {
		dep.Drafts = map[string]Draft{}
	}
	return dep, nil
}

func marshalDrafts(drafts map[string]Draft) (datatypes.JSON, error) {
	raw, err := json.Marshal(drafts)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// ActiveDraftName picks the draft a write or publish applies to.
func ActiveDraftName(state string) string {
	if state == StateInProgress {
		return DraftEdit
	}
	return DraftDefault
}

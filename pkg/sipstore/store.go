package sipstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/blobstore"
	"github.com/sciforge/depository/pkg/common/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("sip not found")

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&SIP{}, &SIPFile{}, &RecordSIP{})
}

func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// Seal captures the published metadata, the file list, and the submitting
// agent into an immutable package. Sealed rows are never updated or deleted.
func (s *Store) Seal(ctx context.Context, meta *models.RecordMetadata, files []blobstore.FileInstance, agent models.Agent, recidPidID uuid.UUID) (*SIP, error) {
	agent.SchemaURL = AgentSchemaURL

	content, err := CanonicalJSON(meta)
	if err != nil {
		return nil, err
	}
	agentJSON, err := json.Marshal(agent)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sip := &SIP{
		ID:        uuid.New(),
		Content:   content,
		Format:    "json",
		Agent:     agentJSON,
		Sealed:    true,
		CreatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sip).Error; err != nil {
			return err
		}
		for _, f := range files {
			row := &SIPFile{
				SIPID:     sip.ID,
				Filepath:  f.Key,
				FileID:    f.ID,
				CreatedAt: now,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return tx.Create(&RecordSIP{
			SIPID:     sip.ID,
			PidID:     recidPidID,
			CreatedAt: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return sip, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*SIP, error) {
	var sip SIP
	result := s.db.WithContext(ctx).First(&sip, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &sip, result.Error
}

func (s *Store) Files(ctx context.Context, sipID uuid.UUID) ([]SIPFile, error) {
	var files []SIPFile
	err := s.db.WithContext(ctx).
		Where("sip_id = ?", sipID).
		Order("id asc").
		Find(&files).Error
	return files, err
}

// ByPid lists all sealed packages bound to a recid PID, oldest first.
func (s *Store) ByPid(ctx context.Context, pidID uuid.UUID) ([]SIP, error) {
	var links []RecordSIP
	err := s.db.WithContext(ctx).
		Where("pid_id = ?", pidID).
		Order("id asc").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	sips := make([]SIP, 0, len(links))
	for _, l := range links {
		sip, err := s.Get(ctx, l.SIPID)
		if err != nil {
			return nil, err
		}
		sips = append(sips, *sip)
	}
	return sips, nil
}

// CountForPid reports how many sealed packages reference a recid PID; PIDs
// with sealed packages must never be hard-deleted.
func (s *Store) CountForPid(ctx context.Context, pidID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&RecordSIP{}).
		Where("pid_id = ?", pidID).
		Count(&n).Error
	return n, err
}

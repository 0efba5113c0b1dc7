package records

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/common/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrGone     = errors.New("record tombstoned")
)

type Store struct {
	db  *gorm.DB
	reg *Registry
}

func NewStore(db *gorm.DB, reg *Registry) *Store {
	return &Store{db: db, reg: reg}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&recordModel{}, &revisionModel{})
}

func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx, reg: s.reg}
}

func (s *Store) Registry() *Registry { return s.reg }

// Create validates and writes revision 0 of a new record.
func (s *Store) Create(ctx context.Context, meta *models.RecordMetadata) (*Record, error) {
	meta.Schema = SchemaURL
	if err := Validate(meta, s.reg, time.Now().UTC()); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	row := &recordModel{
		ID:        uuid.New(),
		Revision:  0,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return tx.Create(&revisionModel{
			RecordID:  row.ID,
			Revision:  0,
			Payload:   payload,
			CreatedAt: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.toRecord(row)
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	var row recordModel
	result := s.db.WithContext(ctx).First(&row, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	if row.Tombstone {
		return nil, ErrGone
	}
	return s.toRecord(&row)
}

// GetRevision returns a specific historical revision.
func (s *Store) GetRevision(ctx context.Context, id uuid.UUID, revision int) (*Record, error) {
	var rev revisionModel
	result := s.db.WithContext(ctx).
		First(&rev, "record_id = ? AND revision = ?", id, revision)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	var meta models.RecordMetadata
	if err := json.Unmarshal(rev.Payload, &meta); err != nil {
		return nil, err
	}
	return &Record{ID: id, Revision: rev.Revision, Metadata: meta, CreatedAt: rev.CreatedAt}, nil
}

// Update validates the new metadata and commits it as the next revision.
func (s *Store) Update(ctx context.Context, id uuid.UUID, meta *models.RecordMetadata) (*Record, error) {
	meta.Schema = SchemaURL
	if err := Validate(meta, s.reg, time.Now().UTC()); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	var updated *recordModel
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row recordModel
		result := tx.First(&row, "id = ?", id)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if result.Error != nil {
			return result.Error
		}
		if row.Tombstone {
			return ErrGone
		}

		now := time.Now().UTC()
		row.Revision++
		row.Payload = payload
		row.UpdatedAt = now
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		if err := tx.Create(&revisionModel{
			RecordID:  row.ID,
			Revision:  row.Revision,
			Payload:   payload,
			CreatedAt: now,
		}).Error; err != nil {
			return err
		}
		updated = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.toRecord(updated)
}

// Delete tombstones a record; readers observe 410 semantics afterwards.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&recordModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"tombstone": true, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// All lists every live record, tombstones excluded. The index reconciler
// walks this to repair drift.
func (s *Store) All(ctx context.Context) ([]Record, error) {
	var rows []recordModel
	err := s.db.WithContext(ctx).Where("tombstone = ?", false).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for i := range rows {
		rec, err := s.toRecord(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (s *Store) toRecord(row *recordModel) (*Record, error) {
	var meta models.RecordMetadata
	if err := json.Unmarshal(row.Payload, &meta); err != nil {
		return nil, err
	}
	return &Record{
		ID:        row.ID,
		Revision:  row.Revision,
		Metadata:  meta,
		Tombstone: row.Tombstone,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

package records

import (
	"time"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/common/models"
	"gorm.io/datatypes"
)

type recordModel struct {
	ID        uuid.UUID      `gorm:"primaryKey;column:id"`
	Revision  int            `gorm:"column:revision"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	Tombstone bool           `gorm:"column:tombstone"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (recordModel) TableName() string { return "records" }

type revisionModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement;column:id"`
	RecordID  uuid.UUID      `gorm:"column:record_id;uniqueIndex:idx_record_revision,priority:1"`
	Revision  int            `gorm:"column:revision;uniqueIndex:idx_record_revision,priority:2"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (revisionModel) TableName() string { return "record_revisions" }

// Record is an immutable metadata document with a monotonically increasing
// revision counter.
type Record struct {
	ID        uuid.UUID             `json:"id"`
	Revision  int                   `json:"revision"`
	Metadata  models.RecordMetadata `json:"metadata"`
	Tombstone bool                  `json:"-"`
	CreatedAt time.Time             `json:"created"`
	UpdatedAt time.Time             `json:"updated"`
}

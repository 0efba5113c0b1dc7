package blobstore

import (
	"time"

	"github.com/google/uuid"
)

// FileInstance is the stable handle to stored file content. The row outlives
// soft deletion so sealed packages can always resolve their files.
type FileInstance struct {
	ID           uuid.UUID  `json:"id" gorm:"primaryKey;column:id"`
	DepositionID uuid.UUID  `json:"deposition_id" gorm:"column:deposition_id;index:idx_file_dep_key,priority:1"`
	Key          string     `json:"key" gorm:"column:key;index:idx_file_dep_key,priority:2"`
	StorageKey   string     `json:"-" gorm:"column:storage_key"`
	Checksum     string     `json:"checksum" gorm:"column:checksum"`
	Algorithm    string     `json:"algorithm" gorm:"column:algorithm"`
	Size         int64      `json:"size" gorm:"column:size"`
	MimeType     string     `json:"mime_type,omitempty" gorm:"column:mime_type"`
	SortOrder    int        `json:"sort_order" gorm:"column:sort_order"`
	Deleted      bool       `json:"-" gorm:"column:deleted"`
	DeletedAt    *time.Time `json:"-" gorm:"column:deleted_at"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at"`
}

func (FileInstance) TableName() string { return "file_instances" }

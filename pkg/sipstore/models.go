package sipstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AgentSchemaURL describes the agent JSON format.
const AgentSchemaURL = "https://depository.local/schemas/sipstore/agent-v1.0.0.json"

type SIP struct {
	ID        uuid.UUID      `json:"id" gorm:"primaryKey;column:id"`
	Content   []byte         `json:"-" gorm:"column:content;type:bytea"`
	Format    string         `json:"format" gorm:"column:format"`
	Agent     datatypes.JSON `json:"agent" gorm:"column:agent"`
	Sealed    bool           `json:"sealed" gorm:"column:sealed"`
	CreatedAt time.Time      `json:"created_at" gorm:"column:created_at"`
}

func (SIP) TableName() string { return "sips" }

// SIPFile binds a sealed package to the stable file id in the blob store,
// not to the file's current display name.
type SIPFile struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	SIPID     uuid.UUID `json:"sip_id" gorm:"column:sip_id;index"`
	Filepath  string    `json:"filepath" gorm:"column:filepath"`
	FileID    uuid.UUID `json:"file_id" gorm:"column:file_id;index"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (SIPFile) TableName() string { return "sip_files" }

type RecordSIP struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	SIPID     uuid.UUID `json:"sip_id" gorm:"column:sip_id;index"`
	PidID     uuid.UUID `json:"pid_id" gorm:"column:pid_id;index"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (RecordSIP) TableName() string { return "record_sips" }

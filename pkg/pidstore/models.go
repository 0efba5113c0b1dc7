package pidstore

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNew        Status = "NEW"
	StatusReserved   Status = "RESERVED"
	StatusRegistered Status = "REGISTERED"
	StatusRedirected Status = "REDIRECTED"
	StatusDeleted    Status = "DELETED"
)

type Action string

const (
	ActionReserve  Action = "RESERVE"
	ActionRegister Action = "REGISTER"
	ActionUpdate   Action = "UPDATE"
	ActionDelete   Action = "DELETE"
	ActionRedirect Action = "REDIRECT"
	ActionSync     Action = "SYNC"
)

const (
	ObjectTypeRecord     = "rec"
	ObjectTypeDeposition = "dep"
)

const (
	TypeRecid        = "recid"
	TypeConceptRecid = "crecid"
	TypeDepid        = "depid"
	TypeDOI          = "doi"
	TypeOAI          = "oai"
)

type PersistentIdentifier struct {
	ID         uuid.UUID  `json:"id" gorm:"primaryKey;column:id"`
	PidType    string     `json:"pid_type" gorm:"column:pid_type;uniqueIndex:idx_pid_type_value,priority:1"`
	PidValue   string     `json:"pid_value" gorm:"column:pid_value;uniqueIndex:idx_pid_type_value,priority:2"`
	Provider   string     `json:"pid_provider,omitempty" gorm:"column:pid_provider"`
	Status     Status     `json:"status" gorm:"column:status"`
	ObjectType string     `json:"object_type,omitempty" gorm:"column:object_type;index:idx_pid_object,priority:1"`
	ObjectUUID *uuid.UUID `json:"object_uuid,omitempty" gorm:"column:object_uuid;index:idx_pid_object,priority:2"`
	RedirectTo *uuid.UUID `json:"redirect_to,omitempty" gorm:"column:redirect_to"`
	CreatedAt  time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (PersistentIdentifier) TableName() string { return "persistent_identifiers" }

// PidLog is the append-only audit trail for PID transitions.
type PidLog struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	PidID     uuid.UUID `json:"pid_id" gorm:"column:pid_id;index"`
	Action    Action    `json:"action" gorm:"column:action"`
	Message   string    `json:"message" gorm:"column:message"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (PidLog) TableName() string { return "pid_logs" }

const RelationVersion = "VERSION"

// PidRelation is a directed edge between two PIDs. For VERSION edges the
// parent is the concept PID and the child a specific version.
type PidRelation struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	ParentID     uuid.UUID `json:"parent_id" gorm:"column:parent_id;index"`
	ChildID      uuid.UUID `json:"child_id" gorm:"column:child_id;index"`
	RelationType string    `json:"relation_type" gorm:"column:relation_type"`
	OrderIndex   int       `json:"order_index" gorm:"column:order_index"`
	IsLast       bool      `json:"is_last" gorm:"column:is_last"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
}

func (PidRelation) TableName() string { return "pid_relations" }

// recidCounter and depidCounter hand out the integer identifier series via
// their autoincrement primary keys.
type recidCounter struct {
	ID int64 `gorm:"primaryKey;autoIncrement;column:id"`
}

func (recidCounter) TableName() string { return "recid_counters" }

type depidCounter struct {
	ID int64 `gorm:"primaryKey;autoIncrement;column:id"`
}

func (depidCounter) TableName() string { return "depid_counters" }

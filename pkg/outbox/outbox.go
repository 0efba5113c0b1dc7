package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Message kinds drained by the worker.
const (
	KindRegisterDOI  = "register_doi"
	KindUpdateDOI    = "update_doi"
	KindDeleteDOI    = "delete_doi"
	KindIndexRecord  = "index_record"
	KindRemoveRecord = "remove_record"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

var ErrExhausted = errors.New("outbox message exhausted its retries")

// Message is one pending side effect, committed in the same transaction as
// the state change it accompanies.
type Message struct {
	ID          uuid.UUID      `json:"id" gorm:"primaryKey;column:id"`
	Topic       string         `json:"topic" gorm:"column:topic"`
	Kind        string         `json:"kind" gorm:"column:kind"`
	Payload     datatypes.JSON `json:"payload" gorm:"column:payload"`
	Status      string         `json:"status" gorm:"column:status;index"`
	Attempts    int            `json:"attempts" gorm:"column:attempts"`
	LastError   string         `json:"last_error,omitempty" gorm:"column:last_error"`
	NextAttempt time.Time      `json:"next_attempt" gorm:"column:next_attempt;index"`
	CreatedAt   time.Time      `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"column:updated_at"`
}

func (Message) TableName() string { return "outbox_messages" }

type Outbox struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Outbox {
	return &Outbox{db: db}
}

func (o *Outbox) AutoMigrate() error {
	return o.db.AutoMigrate(&Message{})
}

func (o *Outbox) WithTx(tx *gorm.DB) *Outbox {
	return &Outbox{db: tx}
}

// Enqueue writes a pending message. Call it inside the transaction that
// commits the state change the message announces.
func (o *Outbox) Enqueue(ctx context.Context, topic, kind string, payload map[string]interface{}) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	msg := &Message{
		ID:          uuid.New(),
		Topic:       topic,
		Kind:        kind,
		Payload:     raw,
		Status:      StatusPending,
		NextAttempt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := o.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// ClaimDue locks and returns pending messages whose next attempt is due.
func (o *Outbox) ClaimDue(ctx context.Context, limit int) ([]Message, error) {
	var msgs []Message
	err := o.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND next_attempt <= ?", StatusPending, time.Now().UTC()).
		Order("created_at asc").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (o *Outbox) MarkSent(ctx context.Context, id uuid.UUID) error {
	return o.db.WithContext(ctx).Model(&Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     StatusSent,
			"updated_at": time.Now().UTC(),
		}).Error
}

// Requeue schedules another attempt with exponential backoff, or marks the
// message failed once maxAttempts is exhausted.
func (o *Outbox) Requeue(ctx context.Context, msg *Message, cause error, base time.Duration, maxAttempts int) error {
	attempts := msg.Attempts + 1
	updates := map[string]interface{}{
		"attempts":   attempts,
		"last_error": cause.Error(),
		"updated_at": time.Now().UTC(),
	}
	var result error
	if attempts >= maxAttempts {
		updates["status"] = StatusFailed
		result = ErrExhausted
	} else {
		updates["next_attempt"] = time.Now().UTC().Add(Backoff(base, attempts))
	}
	if err := o.db.WithContext(ctx).Model(&Message{}).
		Where("id = ?", msg.ID).
		Updates(updates).Error; err != nil {
		return err
	}
	return result
}

// PendingCount feeds the backlog gauge.
func (o *Outbox) PendingCount(ctx context.Context) (int64, error) {
	var n int64
	err := o.db.WithContext(ctx).Model(&Message{}).
		Where("status = ?", StatusPending).
		Count(&n).Error
	return n, err
}

// Backoff grows exponentially with the attempt count, capped at one hour.
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= time.Hour {
			return time.Hour
		}
	}
	return d
}

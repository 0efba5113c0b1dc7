package pidstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound          = errors.New("persistent identifier not found")
	ErrPidAlreadyExists  = errors.New("persistent identifier already exists")
	ErrInvalidTransition = errors.New("invalid PID status transition")
)

// allowedSources maps each action to the statuses it may start from.
var allowedSources = map[Action][]Status{
	ActionReserve:  {StatusNew},
	ActionRegister: {StatusNew, StatusReserved},
	ActionUpdate:   {StatusRegistered, StatusRedirected, StatusDeleted},
	ActionDelete:   {StatusNew, StatusReserved, StatusRegistered, StatusRedirected},
	ActionRedirect: {StatusRegistered},
}

// CanTransition reports whether an action may be applied to a PID in the
// given status.
func CanTransition(action Action, from Status) bool {
	for _, s := range allowedSources[action] {
		if s == from {
			return true
		}
	}
	return false
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&PersistentIdentifier{},
		&PidLog{},
		&PidRelation{},
		&recidCounter{},
		&depidCounter{},
	)
}

// WithTx returns a store bound to the given transaction.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Create inserts a new PID in status NEW. A uniqueness violation on
// (pid_type, pid_value) is reported as ErrPidAlreadyExists.
func (s *Store) Create(ctx context.Context, pidType, pidValue, provider, objectType string, objectUUID *uuid.UUID) (*PersistentIdentifier, error) {
	now := time.Now().UTC()
	pid := &PersistentIdentifier{
		ID:         uuid.New(),
		PidType:    pidType,
		PidValue:   pidValue,
		Provider:   provider,
		Status:     StatusNew,
		ObjectType: objectType,
		ObjectUUID: objectUUID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(pid).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%s:%s: %w", pidType, pidValue, ErrPidAlreadyExists)
		}
		return nil, err
	}
	return pid, nil
}

func (s *Store) Get(ctx context.Context, pidType, pidValue string) (*PersistentIdentifier, error) {
	var pid PersistentIdentifier
	result := s.db.WithContext(ctx).
		First(&pid, "pid_type = ? AND pid_value = ?", pidType, pidValue)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &pid, result.Error
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*PersistentIdentifier, error) {
	var pid PersistentIdentifier
	result := s.db.WithContext(ctx).First(&pid, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &pid, result.Error
}

func (s *Store) GetByObject(ctx context.Context, pidType, objectType string, objectUUID uuid.UUID) (*PersistentIdentifier, error) {
	var pid PersistentIdentifier
	result := s.db.WithContext(ctx).
		First(&pid, "pid_type = ? AND object_type = ? AND object_uuid = ?", pidType, objectType, objectUUID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &pid, result.Error
}

// Bind attaches a PID to a domain object.
func (s *Store) Bind(ctx context.Context, pid *PersistentIdentifier, objectType string, objectUUID uuid.UUID) error {
	pid.ObjectType = objectType
	pid.ObjectUUID = &objectUUID
	pid.UpdatedAt = time.Now().UTC()
	return s.db.WithContext(ctx).Model(&PersistentIdentifier{}).
		Where("id = ?", pid.ID).
		Updates(map[string]interface{}{
			"object_type": objectType,
			"object_uuid": objectUUID,
			"updated_at":  pid.UpdatedAt,
		}).Error
}

func (s *Store) Reserve(ctx context.Context, pid *PersistentIdentifier, message string) error {
	return s.transition(ctx, pid, ActionReserve, StatusReserved, message)
}

func (s *Store) Register(ctx context.Context, pid *PersistentIdentifier, message string) error {
	if pid.Status == StatusRegistered {
		// Already there; idempotent.
		return s.AppendLog(ctx, pid.ID, ActionRegister, "already registered")
	}
	return s.transition(ctx, pid, ActionRegister, StatusRegistered, message)
}

func (s *Store) Update(ctx context.Context, pid *PersistentIdentifier, message string) error {
	if !CanTransition(ActionUpdate, pid.Status) {
		s.logFailure(ctx, pid, ActionUpdate)
		return fmt.Errorf("update from %s: %w", pid.Status, ErrInvalidTransition)
	}
	// Update reactivates a DELETED PID at the registrar.
	target := pid.Status
	if pid.Status == StatusDeleted {
		target = StatusRegistered
	}
	return s.transition(ctx, pid, ActionUpdate, target, message)
}

func (s *Store) Delete(ctx context.Context, pid *PersistentIdentifier, message string) error {
	if !CanTransition(ActionDelete, pid.Status) {
		s.logFailure(ctx, pid, ActionDelete)
		return fmt.Errorf("delete from %s: %w", pid.Status, ErrInvalidTransition)
	}
	return s.transition(ctx, pid, ActionDelete, StatusDeleted, message)
}

func (s *Store) Redirect(ctx context.Context, pid *PersistentIdentifier, target *PersistentIdentifier, message string) error {
	if !CanTransition(ActionRedirect, pid.Status) {
		s.logFailure(ctx, pid, ActionRedirect)
		return fmt.Errorf("redirect from %s: %w", pid.Status, ErrInvalidTransition)
	}
	if target.PidType != pid.PidType {
		return fmt.Errorf("redirect target must share pid_type %s: %w", pid.PidType, ErrInvalidTransition)
	}
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(&PersistentIdentifier{}).
		Where("id = ?", pid.ID).
		Updates(map[string]interface{}{
			"status":      StatusRedirected,
			"redirect_to": target.ID,
			"updated_at":  now,
		}).Error
	if err != nil {
		return err
	}
	pid.Status = StatusRedirected
	pid.RedirectTo = &target.ID
	pid.UpdatedAt = now
	return s.AppendLog(ctx, pid.ID, ActionRedirect, message)
}

func (s *Store) transition(ctx context.Context, pid *PersistentIdentifier, action Action, target Status, message string) error {
	if !CanTransition(action, pid.Status) {
		s.logFailure(ctx, pid, action)
		return fmt.Errorf("%s from %s: %w", action, pid.Status, ErrInvalidTransition)
	}
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(&PersistentIdentifier{}).
		Where("id = ?", pid.ID).
		Updates(map[string]interface{}{
			"status":     target,
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}
	pid.Status = target
	pid.UpdatedAt = now
	return s.AppendLog(ctx, pid.ID, action, message)
}

func (s *Store) logFailure(ctx context.Context, pid *PersistentIdentifier, action Action) {
	_ = s.AppendLog(ctx, pid.ID, action, fmt.Sprintf("rejected: %s not allowed from %s", action, pid.Status))
}

// AppendLog writes one audit row; the log is append-only.
func (s *Store) AppendLog(ctx context.Context, pidID uuid.UUID, action Action, message string) error {
	entry := &PidLog{
		PidID:     pidID,
		Action:    action,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *Store) Logs(ctx context.Context, pidID uuid.UUID) ([]PidLog, error) {
	var logs []PidLog
	err := s.db.WithContext(ctx).
		Where("pid_id = ?", pidID).
		Order("id asc").
		Find(&logs).Error
	return logs, err
}

// NextRecid hands out the next value of the record identifier series.
func (s *Store) NextRecid(ctx context.Context) (int64, error) {
	c := &recidCounter{}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return 0, err
	}
	return c.ID, nil
}

// NextDepid hands out the next value of the deposition identifier series.
func (s *Store) NextDepid(ctx context.Context) (int64, error) {
	c := &depidCounter{}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return 0, err
	}
	return c.ID, nil
}

// LockForUpdate loads a PID taking a row lock, serializing version-graph
// mutations under the same concept.
func (s *Store) LockForUpdate(ctx context.Context, pidType, pidValue string) (*PersistentIdentifier, error) {
	var pid PersistentIdentifier
	result := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&pid, "pid_type = ? AND pid_value = ?", pidType, pidValue)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &pid, result.Error
}

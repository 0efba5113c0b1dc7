package blobstore

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"hash"
	"hash/adler32"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/common/logger"
	"gorm.io/gorm"
)

const maxFilenameLen = 255

var (
	ErrNotFound          = errors.New("file not found")
	ErrDuplicateFilename = errors.New("duplicate filename in deposition")
	ErrInvalidFilename   = errors.New("invalid filename")
	ErrFileTooLarge      = errors.New("file exceeds upload limit")
)

type Store struct {
	db       *gorm.DB
	backend  Backend
	algo     string
	maxBytes int64
}

func NewStore(db *gorm.DB, backend Backend, checksumAlgo string, maxBytes int64) *Store {
	if checksumAlgo == "" {
		checksumAlgo = "md5"
	}
	return &Store{db: db, backend: backend, algo: checksumAlgo, maxBytes: maxBytes}
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&FileInstance{})
}

func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx, backend: s.backend, algo: s.algo, maxBytes: s.maxBytes}
}

// SanitizeFilename strips any directory components and enforces the length
// limit.
func SanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", ErrInvalidFilename
	}
	if len(name) > maxFilenameLen {
		return "", fmt.Errorf("filename longer than %d characters: %w", maxFilenameLen, ErrInvalidFilename)
	}
	return name, nil
}

func (s *Store) newHash() hash.Hash {
	if s.algo == "adler32" {
		return adler32.New()
	}
	return md5.New()
}

// Put streams the content into the backend, computing the checksum during
// the single write pass.
func (s *Store) Put(ctx context.Context, depositionID uuid.UUID, filename string, r io.Reader) (*FileInstance, error) {
	key, err := SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}

	var existing int64
	err = s.db.WithContext(ctx).Model(&FileInstance{}).
		Where("deposition_id = ? AND key = ? AND deleted = ?", depositionID, key, false).
		Count(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrDuplicateFilename)
	}

	if s.maxBytes > 0 {
		r = io.LimitReader(r, s.maxBytes+1)
	}

	id := uuid.New()
	storageKey := strings.ReplaceAll(id.String(), "-", "")
	h := s.newHash()
	size, err := s.backend.Save(ctx, storageKey, io.TeeReader(r, h))
	if err != nil {
		return nil, fmt.Errorf("saving file content: %w", err)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		// The oversize content already hit the backend; don't leave it there.
		if rmErr := s.backend.Remove(ctx, storageKey); rmErr != nil {
			logger.WithError(rmErr).WithField("storage_key", storageKey).Warn("removing oversize upload")
		}
		return nil, ErrFileTooLarge
	}

	var maxOrder int
	row := s.db.WithContext(ctx).Model(&FileInstance{}).
		Where("deposition_id = ?", depositionID).
		Select("COALESCE(MAX(sort_order), 0)").Row()
	_ = row.Scan(&maxOrder)

	instance := &FileInstance{
		ID:           id,
		DepositionID: depositionID,
		Key:          key,
		StorageKey:   storageKey,
		Checksum:     fmt.Sprintf("%x", h.Sum(nil)),
		Algorithm:    s.algo,
		Size:         size,
		SortOrder:    maxOrder + 1,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(instance).Error; err != nil {
		return nil, err
	}
	return instance, nil
}

func (s *Store) Get(ctx context.Context, fileID uuid.UUID) (*FileInstance, error) {
	var instance FileInstance
	result := s.db.WithContext(ctx).First(&instance, "id = ?", fileID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &instance, result.Error
}

// Open returns the content stream. Soft-deleted files stay readable because
// sealed packages may still reference them.
func (s *Store) Open(ctx context.Context, fileID uuid.UUID) (*FileInstance, io.ReadCloser, error) {
	instance, err := s.Get(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.backend.Open(ctx, instance.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return instance, rc, nil
}

// SoftDelete flips the status flag; content is never removed.
func (s *Store) SoftDelete(ctx context.Context, fileID uuid.UUID) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&FileInstance{}).
		Where("id = ? AND deleted = ?", fileID, false).
		Updates(map[string]interface{}{"deleted": true, "deleted_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Rename(ctx context.Context, fileID uuid.UUID, newName string) error {
	key, err := SanitizeFilename(newName)
	if err != nil {
		return err
	}
	instance, err := s.Get(ctx, fileID)
	if err != nil {
		return err
	}
	var clash int64
	err = s.db.WithContext(ctx).Model(&FileInstance{}).
		Where("deposition_id = ? AND key = ? AND deleted = ? AND id <> ?", instance.DepositionID, key, false, fileID).
		Count(&clash).Error
	if err != nil {
		return err
	}
	if clash > 0 {
		return fmt.Errorf("%s: %w", key, ErrDuplicateFilename)
	}
	return s.db.WithContext(ctx).Model(&FileInstance{}).
		Where("id = ?", fileID).
		Update("key", key).Error
}

func (s *Store) Reorder(ctx context.Context, depositionID uuid.UUID, orderedIDs []uuid.UUID) error {
	for i, id := range orderedIDs {
		err := s.db.WithContext(ctx).Model(&FileInstance{}).
			Where("id = ? AND deposition_id = ?", id, depositionID).
			Update("sort_order", i+1).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListByDeposition(ctx context.Context, depositionID uuid.UUID) ([]FileInstance, error) {
	var files []FileInstance
	err := s.db.WithContext(ctx).
		Where("deposition_id = ? AND deleted = ?", depositionID, false).
		Order("sort_order asc, created_at asc").
		Find(&files).Error
	return files, err
}

package blobstore

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestSanitizeFilename(t *testing.T) {
	name, err := SanitizeFilename("test.txt")
	require.NoError(t, err)
	require.Equal(t, "test.txt", name)

	name, err = SanitizeFilename("../../etc/passwd")
	require.NoError(t, err)
	require.Equal(t, "passwd", name)

	name, err = SanitizeFilename("dir\\inner\\file.csv")
	require.NoError(t, err)
	require.Equal(t, "file.csv", name)

	_, err = SanitizeFilename("")
	require.ErrorIs(t, err, ErrInvalidFilename)

	_, err = SanitizeFilename("..")
	require.ErrorIs(t, err, ErrInvalidFilename)

	_, err = SanitizeFilename(strings.Repeat("a", 300))
	require.ErrorIs(t, err, ErrInvalidFilename)
}

func TestFSBackendRoundTrip(t *testing.T) {
	backend, err := NewFSBackend(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	content := []byte("1, 2, 3")
	n, err := backend.Save(ctx, "0123456789abcdef", bytes.NewReader(content))
	require.NoError(t, err)
	require.Equal(t, int64(7), n)

	rc, err := backend.Open(ctx, "0123456789abcdef")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, content, got)

	sum := fmt.Sprintf("%x", md5.Sum(got))
	require.Equal(t, "66ce05ea43c73b8e33c74c12d0371bc9", sum)
}

func TestFSBackendRejectsOverwrite(t *testing.T) {
	backend, err := NewFSBackend(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = backend.Save(ctx, "deadbeef00000000", strings.NewReader("one"))
	require.NoError(t, err)

	_, err = backend.Save(ctx, "deadbeef00000000", strings.NewReader("two"))
	require.Error(t, err)
}

func TestFSBackendRemove(t *testing.T) {
	backend, err := NewFSBackend(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = backend.Save(ctx, "cafebabe00000000", strings.NewReader("bytes"))
	require.NoError(t, err)

	require.NoError(t, backend.Remove(ctx, "cafebabe00000000"))
	_, err = backend.Open(ctx, "cafebabe00000000")
	require.Error(t, err)
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	require.NoError(t, err)
	return n
}

func TestPutOversizeLeavesNoContent(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	dir := t.TempDir()
	backend, err := NewFSBackend(dir)
	require.NoError(t, err)
	store := NewStore(db, backend, "md5", 3)
	require.NoError(t, store.AutoMigrate())

	_, err = store.Put(context.Background(), uuid.New(), "big.bin", strings.NewReader("way past the limit"))
	require.ErrorIs(t, err, ErrFileTooLarge)

	// The rejected upload must not linger in the backend.
	require.Zero(t, countFiles(t, dir))
}

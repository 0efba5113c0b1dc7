package pidstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	s := NewStore(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func TestCreateDuplicateValue(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	value := uuid.New().String()

	_, err := s.Create(ctx, TypeDOI, value, "datacite", "", nil)
	require.NoError(t, err)

	// The unique index on (pid_type, pid_value) surfaces as the sentinel,
	// not as a bare driver error.
	_, err = s.Create(ctx, TypeDOI, value, "datacite", "", nil)
	require.ErrorIs(t, err, ErrPidAlreadyExists)

	// Same value under another type is a different identifier.
	_, err = s.Create(ctx, TypeOAI, value, "", "", nil)
	require.NoError(t, err)
}

package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmsavelev/mongrate/internal/logger"
	"github.com/dmsavelev/mongrate/migration"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFolder(t *testing.T, names ...string) string {
	t.Helper()

	folder := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(folder, name), []byte("package migrations\n"), 0644))
	}

	return folder
}

func Test_LocalDirectorySelect(t *testing.T) {
	t.Run("files are discovered sorted ascending by order", func(t *testing.T) {
		folder := makeFolder(t,
			"0003_drop_legacy_sessions.go",
			"0001_create_user_indexes.go",
			"0002_seed_currencies.go",
		)

		ld := NewLocalDirectory(folder, &logger.NullLogger{})
		require.True(t, ld.IsValid())

		ds, err := ld.Select(context.Background())
		require.NoError(t, err)
		require.Len(t, ds, 3)

		assert.Equal(t, "0001_create_user_indexes", ds[0].Key)
		assert.Equal(t, 1, ds[0].Order)
		assert.Equal(t, filepath.Join(folder, "0001_create_user_indexes.go"), ds[0].Path)

		assert.Equal(t, "0002_seed_currencies", ds[1].Key)
		assert.Equal(t, 2, ds[1].Order)

		assert.Equal(t, "0003_drop_legacy_sessions", ds[2].Key)
		assert.Equal(t, 3, ds[2].Order)
	})

	t.Run("reserved and non-matching files are skipped", func(t *testing.T) {
		folder := makeFolder(t,
			"0001_create_user_indexes.go",
			"0001_create_user_indexes_test.go",
			"_helpers.go",
			".hidden",
			"README.md",
			"doc.go",
		)

		ld := NewLocalDirectory(folder, &logger.NullLogger{})

		ds, err := ld.Select(context.Background())
		require.NoError(t, err)
		require.Len(t, ds, 1)
		assert.Equal(t, "0001_create_user_indexes", ds[0].Key)
	})

	t.Run("missing folder fails discovery", func(t *testing.T) {
		ld := NewLocalDirectory(filepath.Join(t.TempDir(), "nope"), &logger.NullLogger{})
		require.False(t, ld.IsValid())

		_, err := ld.Select(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFolderNotFound))
	})

	t.Run("duplicate order numbers fail discovery", func(t *testing.T) {
		folder := makeFolder(t,
			"0001_create_user_indexes.go",
			"0001_seed_currencies.go",
		)

		ld := NewLocalDirectory(folder, &logger.NullLogger{})

		_, err := ld.Select(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateOrder))
	})

	t.Run("order gap fails discovery", func(t *testing.T) {
		folder := makeFolder(t,
			"0001_create_user_indexes.go",
			"0003_drop_legacy_sessions.go",
		)

		ld := NewLocalDirectory(folder, &logger.NullLogger{})

		_, err := ld.Select(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrOrderGap))
	})

	t.Run("set not starting at order 1 fails discovery", func(t *testing.T) {
		folder := makeFolder(t, "0002_seed_currencies.go")

		ld := NewLocalDirectory(folder, &logger.NullLogger{})

		_, err := ld.Select(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrOrderGap))
	})

	t.Run("empty folder yields an empty set", func(t *testing.T) {
		ld := NewLocalDirectory(t.TempDir(), &logger.NullLogger{})

		ds, err := ld.Select(context.Background())
		require.NoError(t, err)
		assert.Empty(t, ds)
	})

	t.Run("cancelled context stops discovery", func(t *testing.T) {
		folder := makeFolder(t, "0001_create_user_indexes.go")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ld := NewLocalDirectory(folder, &logger.NullLogger{})

		_, err := ld.Select(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func Test_InMemorySourceSortsDescriptors(t *testing.T) {
	t.Parallel()

	s := NewInMemorySource(
		migration.Descriptor{Key: "0002_b", Order: 2},
		migration.Descriptor{Key: "0001_a", Order: 1},
	)

	ds, err := s.Select(context.Background())
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, 1, ds[0].Order)
	assert.Equal(t, 2, ds[1].Order)
}

package source

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dmsavelev/mongrate/internal/logger"
	"github.com/dmsavelev/mongrate/migration"
	"github.com/pkg/errors"
)

const DefaultMigrationsFolder = "./migrations"

var filenameRegexp = regexp.MustCompile(`^(?P<order>\d+)_(?P<name>\w[\w-]*)\.\w+$`)

// LocalDirectory discovers migration files in a folder by the
// numeric-prefix naming convention <order>_<description>.<ext>.
// Dotfiles, underscore-prefixed names and test files are reserved
// and never treated as migrations.
type LocalDirectory struct {
	folder string
	lg     logger.Logger
}

func NewLocalDirectory(folder string, lg logger.Logger) *LocalDirectory {
	if folder == "" {
		folder = DefaultMigrationsFolder
	}

	return &LocalDirectory{folder: folder, lg: lg}
}

func (ld *LocalDirectory) IsValid() bool {
	info, err := os.Stat(ld.folder)
	if os.IsNotExist(err) {
		return false
	}

	return info.IsDir()
}

// Select scans the folder and returns descriptors sorted ascending by order.
// Order numbers must be unique and contiguous starting at 1; anything else
// fails discovery instead of leaving the sequence ambiguous.
func (ld *LocalDirectory) Select(ctx context.Context) (migration.Descriptors, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ld.folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrFolderNotFound, "[%s]", ld.folder)
		}

		return nil, errors.Wrapf(err, "could not read migrations folder [%s]", ld.folder)
	}

	seen := make(map[int]string)
	var result migration.Descriptors

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if isReserved(name) {
			continue
		}

		d, err := parseFilename(name)
		if err != nil {
			ld.lg.Debugf("skipping %s: %s", name, err.Error())
			continue
		}

		if previous, ok := seen[d.Order]; ok {
			return nil, errors.Wrapf(ErrDuplicateOrder, "order %d shared by %s and %s", d.Order, previous, name)
		}

		seen[d.Order] = name
		d.Path = filepath.Join(ld.folder, name)
		result = append(result, d)
	}

	sort.Sort(result)

	for i := range result {
		if result[i].Order != i+1 {
			return nil, errors.Wrapf(ErrOrderGap, "expected order %d, found %d (%s)", i+1, result[i].Order, result[i].Key)
		}
	}

	return result, nil
}

func isReserved(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasPrefix(name, "_") ||
		strings.HasSuffix(name, "_test.go")
}

func parseFilename(name string) (migration.Descriptor, error) {
	var d migration.Descriptor

	matches := filenameRegexp.FindStringSubmatch(name)
	if len(matches) < 3 {
		return d, errors.Wrapf(ErrNotAMigrationFile, "[%s]", name)
	}

	order, err := strconv.Atoi(matches[1])
	if err != nil || order < 1 {
		return d, errors.Wrapf(ErrNotAMigrationFile, "[%s] invalid order prefix", name)
	}

	d.Key = strings.TrimSuffix(name, filepath.Ext(name))
	d.Order = order

	return d, nil
}

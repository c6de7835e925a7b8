package source

import (
	"context"

	"github.com/dmsavelev/mongrate/migration"
	"github.com/pkg/errors"
)

var ErrFolderNotFound = errors.New("migrations folder not found")
var ErrNotAMigrationFile = errors.New("not a migration file")
var ErrDuplicateOrder = errors.New("duplicate migration order")
var ErrOrderGap = errors.New("migration orders are not contiguous")

// Selector produces the ordered migration set, sorted ascending by order.
type Selector interface {
	Select(ctx context.Context) (migration.Descriptors, error)
}

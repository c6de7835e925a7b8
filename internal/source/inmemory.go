package source

import (
	"context"
	"sort"

	"github.com/dmsavelev/mongrate/migration"
)

// InMemorySource serves a fixed descriptor set, mostly useful in tests
// and for embedding the runner without a migrations folder on disk.
type InMemorySource struct {
	descriptors migration.Descriptors
}

func NewInMemorySource(descriptors ...migration.Descriptor) *InMemorySource {
	ds := make(migration.Descriptors, len(descriptors))
	copy(ds, descriptors)
	sort.Sort(ds)

	return &InMemorySource{descriptors: ds}
}

func (s *InMemorySource) Select(ctx context.Context) (migration.Descriptors, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.descriptors, nil
}

package mongrate

import (
	"context"

	"github.com/dmsavelev/mongrate/internal/source"
	"github.com/dmsavelev/mongrate/migration"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OptionFunc func(m *Migrator) error

// UseDatabase attaches an externally managed database handle. The caller
// stays responsible for disconnecting the client.
func UseDatabase(db *mongo.Database) OptionFunc {
	return func(m *Migrator) error {
		if db == nil {
			return ErrDatabaseNotInitialized
		}

		m.db = db
		return nil
	}
}

// UseMongoDB connects to the given URI and hands ownership of the client
// to the migrator: the CloserFunc returned by NewMigrator disconnects it.
func UseMongoDB(uri, name string) OptionFunc {
	return func(m *Migrator) error {
		client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
		if err != nil {
			return errors.Wrap(err, "could not connect to mongodb")
		}

		m.client = client
		m.db = client.Database(name)
		return nil
	}
}

// UseLocalFolderSource discovers migrations in the given folder instead
// of the default ./migrations.
func UseLocalFolderSource(folder string) OptionFunc {
	return func(m *Migrator) error {
		m.folder = folder
		return nil
	}
}

// UseInMemorySource serves a fixed, pre-discovered descriptor set.
func UseInMemorySource(descriptors ...migration.Descriptor) OptionFunc {
	return func(m *Migrator) error {
		m.selector = source.NewInMemorySource(descriptors...)
		return nil
	}
}

// UseRegistry swaps the default compiled registry, mostly useful for
// embedding several independent migration sets in one binary.
func UseRegistry(r *migration.Registry) OptionFunc {
	return func(m *Migrator) error {
		if r == nil {
			return errors.New("registry is nil")
		}

		m.registry = r
		return nil
	}
}

// WithLedgerCollection overrides the ledger collection name.
func WithLedgerCollection(name string) OptionFunc {
	return func(m *Migrator) error {
		m.ledgerCollection = name
		return nil
	}
}

// WithAdvisoryLock makes every run acquire a single lock document before
// any ledger read, so concurrent runner instances fail fast instead of
// racing on the prerequisite and already-applied checks. Off by default.
func WithAdvisoryLock() OptionFunc {
	return func(m *Migrator) error {
		m.useLock = true
		return nil
	}
}

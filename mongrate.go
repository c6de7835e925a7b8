package mongrate

import (
	"context"
	"time"

	"github.com/dmsavelev/mongrate/internal/database"
	"github.com/dmsavelev/mongrate/internal/logger"
	"github.com/dmsavelev/mongrate/internal/source"
	"github.com/dmsavelev/mongrate/migration"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrDatabaseNotInitialized = errors.New("database handle has not been initialized")
var ErrPrerequisite = errors.New("previous migration has not been applied")

type CloserFunc func() error

// Migrator orchestrates discovery, ordering validation, application and
// rollback of migrations against a single MongoDB database, recording
// applied migrations in the ledger collection. It issues every database
// operation strictly sequentially within one run.
type Migrator struct {
	lg       logger.Logger
	db       *mongo.Database
	client   *mongo.Client // set only when the migrator owns the connection
	ledger   database.Ledger
	locker   database.Locker
	selector source.Selector
	registry *migration.Registry

	folder           string
	ledgerCollection string
	useLock          bool
}

// NewMigrator creates a migrator from option callbacks; when no custom
// options are given a number of defaults apply: the default compiled
// registry, the ./migrations folder, the migrations ledger collection,
// no logging and no advisory lock.
func NewMigrator(opts ...OptionFunc) (*Migrator, CloserFunc, error) {
	m := new(Migrator)
	m.lg = &logger.NullLogger{}
	m.locker = database.NullLocker{}
	m.registry = migration.DefaultRegistry()

	for _, oFunc := range opts {
		if err := oFunc(m); err != nil {
			return nil, nil, err
		}
	}

	if m.db == nil {
		return nil, nil, ErrDatabaseNotInitialized
	}

	if m.selector == nil {
		m.selector = source.NewLocalDirectory(m.folder, m.lg)
	}

	if m.ledger == nil {
		m.ledger = database.NewMongoLedger(m.db, m.ledgerCollection)
	}

	m.ledger.SetLogger(m.lg)

	if m.useLock {
		m.locker = database.NewMongoLocker(m.db, "")
	}

	return m, m.close, nil
}

// Migrate discovers the ordered migration set and applies every pending
// migration in ascending order. The first failure stops the run and
// propagates; migrations after the failing one are never attempted.
// Returns the keys of the migrations actually applied.
func (m *Migrator) Migrate(ctx context.Context) ([]string, error) {
	if err := m.locker.Lock(ctx); err != nil {
		m.lg.Error(err)
		return nil, err
	}
	defer m.unlock(ctx)

	descriptors, err := m.selector.Select(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	var applied []string
	for i := range descriptors {
		unit, err := m.registry.Resolve(descriptors[i].Order)
		if err != nil {
			err = errors.Wrapf(err, "could not load migration [%s]", descriptors[i].Key)
			m.lg.Error(err)
			return applied, err
		}

		ok, err := m.applyOne(ctx, descriptors[i].Order, unit)
		if err != nil {
			m.lg.Error(err)
			return applied, err
		}

		if ok {
			applied = append(applied, descriptors[i].Key)
		}
	}

	return applied, nil
}

// MigrateOne applies exactly one migration resolved by its key, e.g.
// 0002_seed_currencies. The sequential gate still applies: the migration
// with the preceding order must already have a ledger record.
func (m *Migrator) MigrateOne(ctx context.Context, key string) error {
	order, unit, err := m.resolve(key)
	if err != nil {
		m.lg.Error(err)
		return err
	}

	if err := m.locker.Lock(ctx); err != nil {
		m.lg.Error(err)
		return err
	}
	defer m.unlock(ctx)

	if _, err := m.applyOne(ctx, order, unit); err != nil {
		m.lg.Error(err)
		return err
	}

	return nil
}

// Rollback reverts one migration resolved by its key. The unit's Rollback
// runs unconditionally; only after it succeeds is the ledger record removed,
// so a failed rollback leaves the ledger reading "still applied". Rolling
// back a migration with no ledger record is not an error.
func (m *Migrator) Rollback(ctx context.Context, key string) error {
	_, unit, err := m.resolve(key)
	if err != nil {
		m.lg.Error(err)
		return err
	}

	if err := m.locker.Lock(ctx); err != nil {
		m.lg.Error(err)
		return err
	}
	defer m.unlock(ctx)

	name := migration.NameOf(unit)
	m.lg.Debugf("rolling back migration %s", name)

	if err := unit.Rollback(ctx, m.db); err != nil {
		err = errors.Wrapf(err, "could not roll back migration %s", name)
		m.lg.Error(err)
		return err
	}

	if err := m.ledger.Delete(ctx, name); err != nil {
		m.lg.Error(err)
		return err
	}

	m.lg.Successf("migration %s rolled back", name)

	return nil
}

func (m *Migrator) applyOne(ctx context.Context, order int, unit migration.Migration) (bool, error) {
	name := migration.NameOf(unit)

	if order > 1 {
		previous, err := m.ledger.FindByOrder(ctx, order-1)
		if err != nil {
			return false, err
		}

		if previous == nil {
			return false, errors.Wrapf(
				ErrPrerequisite,
				"migration with order %d must be applied before %s",
				order-1, name,
			)
		}
	}

	existing, err := m.ledger.Find(ctx, name)
	if err != nil {
		return false, err
	}

	if existing != nil {
		m.lg.Debugf("migration %s has already been applied", name)
		return false, nil
	}

	m.lg.Debugf("applying migration %s", name)

	if err := unit.Migrate(ctx, m.db); err != nil {
		return false, errors.Wrapf(err, "could not apply migration %s", name)
	}

	if err := m.ledger.Insert(ctx, database.Record{Name: name, Order: order, Applied: true}); err != nil {
		return false, err
	}

	m.lg.Successf("migration %s applied", name)

	return true, nil
}

func (m *Migrator) resolve(key string) (int, migration.Migration, error) {
	order, err := migration.ParseKey(key)
	if err != nil {
		return 0, nil, err
	}

	unit, err := m.registry.Resolve(order)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "could not load migration [%s]", key)
	}

	return order, unit, nil
}

func (m *Migrator) unlock(ctx context.Context) {
	if err := m.locker.Unlock(ctx); err != nil {
		m.lg.Error(err)
	}
}

func (m *Migrator) close() error {
	if m.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		m.lg.Error(err)
		return err
	}

	return nil
}

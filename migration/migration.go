package migration

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrInvalidKey = errors.New("invalid migration key")
var ErrNotRegistered = errors.New("migration is not registered")

var keyRegexp = regexp.MustCompile(`^(?P<order>\d+)_\w[\w-]*$`)

// Migration is a single reversible unit of schema or data change.
// Migrate performs the forward change, Rollback its exact inverse.
// Both run against a database handle owned by the Migrator and must
// return the underlying error unchanged instead of swallowing it.
type Migration interface {
	Migrate(ctx context.Context, db *mongo.Database) error
	Rollback(ctx context.Context, db *mongo.Database) error
}

// Descriptor identifies a discovered migration file. Key is the filename
// stem without extension, Order the integer parsed from the prefix before
// the first underscore.
type Descriptor struct {
	Key   string
	Order int
	Path  string
}

type Descriptors []Descriptor

func (ds Descriptors) Keys() (result []string) {
	for i := range ds {
		result = append(result, ds[i].Key)
	}
	return result
}

func (ds Descriptors) Len() int {
	return len(ds)
}

func (ds Descriptors) Less(i, j int) bool {
	return ds[i].Order < ds[j].Order
}

func (ds Descriptors) Swap(i, j int) {
	ds[i], ds[j] = ds[j], ds[i]
}

// NameOf derives a migration's name from its implementing type,
// with pointer indirection stripped.
func NameOf(m Migration) string {
	t := reflect.TypeOf(m)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Name()
}

// ParseKey extracts the order number from a migration key
// such as 0001_create_user_indexes.
func ParseKey(key string) (int, error) {
	matches := keyRegexp.FindStringSubmatch(key)
	if len(matches) < 2 {
		return 0, errors.Wrapf(ErrInvalidKey, "[%s]", key)
	}

	order, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidKey, "[%s]", key)
	}

	if order < 1 {
		return 0, errors.Wrapf(ErrInvalidKey, "[%s] order must start at 1", key)
	}

	return order, nil
}

// Registry is an ordered table of compiled migrations keyed by order number.
// It replaces runtime code loading: every migration is a statically compiled
// type registered at init time by its source file.
type Registry struct {
	mu    sync.RWMutex
	units map[int]Migration
}

func NewRegistry() *Registry {
	return &Registry{units: make(map[int]Migration)}
}

// Add registers a migration under the given order number. It panics on a nil
// migration or a duplicate order, both programmer errors at init time.
func (r *Registry) Add(order int, m Migration) {
	if m == nil {
		panic("mongrate: Register migration is nil")
	}

	if order < 1 {
		panic(fmt.Sprintf("mongrate: Register order %d is invalid, orders start at 1", order))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.units[order]; ok {
		panic(fmt.Sprintf(
			"mongrate: Register called twice for order %d, already taken by %s",
			order, NameOf(existing),
		))
	}

	r.units[order] = m
}

// Resolve returns the migration registered under the given order number.
func (r *Registry) Resolve(order int) (Migration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.units[order]
	if !ok {
		return nil, errors.Wrapf(ErrNotRegistered, "order %d", order)
	}

	return m, nil
}

// Orders returns the registered order numbers in ascending order.
func (r *Registry) Orders() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]int, 0, len(r.units))
	for order := range r.units {
		orders = append(orders, order)
	}

	sort.Ints(orders)

	return orders
}

var defaultRegistry = NewRegistry()

// Register adds a migration to the default registry. Migration files call it
// from their init functions, so adding a file to the set is enough for the
// runner to pick it up.
func Register(order int, m Migration) {
	defaultRegistry.Add(order, m)
}

// DefaultRegistry exposes the registry populated by Register.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

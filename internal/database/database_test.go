package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Integration tests run against a real MongoDB when MONGRATE_MONGODB_URI
// is set, e.g. mongodb://localhost:27017.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGRATE_MONGODB_URI")
	if uri == "" {
		t.Skip("MONGRATE_MONGODB_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	})

	return client.Database("mongrate_test")
}

func Test_MongoLedger(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	ledger := NewMongoLedger(db, "ledger_test")
	t.Cleanup(func() {
		_ = db.Collection("ledger_test").Drop(context.Background())
	})

	t.Run("find on an empty ledger returns nil without error", func(t *testing.T) {
		r, err := ledger.Find(ctx, "createFooIndex")
		require.NoError(t, err)
		assert.Nil(t, r)

		r, err = ledger.FindByOrder(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, r)
	})

	t.Run("inserted record is found by name and by order", func(t *testing.T) {
		require.NoError(t, ledger.Insert(ctx, Record{Name: "createFooIndex", Order: 1, Applied: true}))

		r, err := ledger.Find(ctx, "createFooIndex")
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, "createFooIndex", r.Name)
		assert.Equal(t, 1, r.Order)
		assert.True(t, r.Applied)

		r, err = ledger.FindByOrder(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, "createFooIndex", r.Name)
	})

	t.Run("delete removes the record, deleting again is a no-op", func(t *testing.T) {
		require.NoError(t, ledger.Delete(ctx, "createFooIndex"))

		r, err := ledger.Find(ctx, "createFooIndex")
		require.NoError(t, err)
		assert.Nil(t, r)

		require.NoError(t, ledger.Delete(ctx, "createFooIndex"))
	})
}

func Test_MongoLocker(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	locker := NewMongoLocker(db, "lock_test")
	t.Cleanup(func() {
		_ = db.Collection("lock_test").Drop(context.Background())
	})

	require.NoError(t, locker.Lock(ctx))

	err := locker.Lock(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))

	require.NoError(t, locker.Unlock(ctx))
	require.NoError(t, locker.Lock(ctx))
	require.NoError(t, locker.Unlock(ctx))
}

package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrLocked = errors.New("another runner holds the advisory lock")

const DefaultLockCollection = "migrations_lock"

const lockID = "advisory_lock"

// Locker guards a migration run against concurrent runner instances.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

type NullLocker struct{}

func (NullLocker) Lock(context.Context) error {
	return nil
}

func (NullLocker) Unlock(context.Context) error {
	return nil
}

// MongoLocker implements an advisory lock as a single document with a
// well-known _id. The unique index on _id turns a concurrent acquire
// into a duplicate key error.
type MongoLocker struct {
	coll *mongo.Collection
}

var _ Locker = (*MongoLocker)(nil)

func NewMongoLocker(db *mongo.Database, collection string) *MongoLocker {
	if collection == "" {
		collection = DefaultLockCollection
	}

	return &MongoLocker{coll: db.Collection(collection)}
}

func (ml *MongoLocker) Lock(ctx context.Context) error {
	doc := bson.M{"_id": lockID, "acquired_at": time.Now().UTC()}

	if _, err := ml.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrapf(ErrLocked, "collection [%s]", ml.coll.Name())
		}

		return errors.Wrap(err, "could not acquire advisory lock")
	}

	return nil
}

func (ml *MongoLocker) Unlock(ctx context.Context) error {
	if _, err := ml.coll.DeleteOne(ctx, bson.M{"_id": lockID}); err != nil {
		return errors.Wrap(err, "could not release advisory lock")
	}

	return nil
}

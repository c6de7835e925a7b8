package database

import (
	"context"

	"github.com/dmsavelev/mongrate/internal/logger"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const DefaultLedgerCollection = "migrations"

// Record is one row of the applied-migrations ledger. It is created when a
// migration is successfully applied, deleted when that migration is rolled
// back and never mutated otherwise.
type Record struct {
	Name    string `bson:"name"`
	Order   int    `bson:"order"`
	Applied bool   `bson:"applied"`
}

// Ledger is the persistent record of applied migrations. Find and
// FindByOrder return a nil record when nothing matches.
type Ledger interface {
	Find(ctx context.Context, name string) (*Record, error)
	FindByOrder(ctx context.Context, order int) (*Record, error)
	Insert(ctx context.Context, r Record) error
	Delete(ctx context.Context, name string) error
	SetLogger(lg logger.Logger)
}

type MongoLedger struct {
	coll *mongo.Collection
	lg   logger.Logger
}

var _ Ledger = (*MongoLedger)(nil)

func NewMongoLedger(db *mongo.Database, collection string) *MongoLedger {
	if collection == "" {
		collection = DefaultLedgerCollection
	}

	return &MongoLedger{
		coll: db.Collection(collection),
		lg:   &logger.NullLogger{},
	}
}

func (ml *MongoLedger) SetLogger(lg logger.Logger) {
	ml.lg = lg
}

func (ml *MongoLedger) Find(ctx context.Context, name string) (*Record, error) {
	return ml.findOne(ctx, bson.M{"name": name})
}

func (ml *MongoLedger) FindByOrder(ctx context.Context, order int) (*Record, error) {
	return ml.findOne(ctx, bson.M{"order": order})
}

func (ml *MongoLedger) findOne(ctx context.Context, filter bson.M) (*Record, error) {
	ml.lg.Command("findOne", filter)

	var r Record
	if err := ml.coll.FindOne(ctx, filter).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "could not read ledger record %v", filter)
	}

	return &r, nil
}

func (ml *MongoLedger) Insert(ctx context.Context, r Record) error {
	ml.lg.Command("insertOne", r)

	if _, err := ml.coll.InsertOne(ctx, r); err != nil {
		return errors.Wrapf(err, "could not insert ledger record [%s]", r.Name)
	}

	return nil
}

// Delete removes the record with the given name. Deleting an absent
// record is a no-op.
func (ml *MongoLedger) Delete(ctx context.Context, name string) error {
	filter := bson.M{"name": name}
	ml.lg.Command("deleteOne", filter)

	if _, err := ml.coll.DeleteOne(ctx, filter); err != nil {
		return errors.Wrapf(err, "could not delete ledger record [%s]", name)
	}

	return nil
}

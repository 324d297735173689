package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/media"
)

// collection is the subset of *mongo.Collection the store uses.
type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

type mongoRecord struct {
	ID        primitive.ObjectID `bson:"_id"`
	PublicID  string             `bson:"public_id,omitempty"`
	Name      string             `bson:"name"`
	URL       string             `bson:"url"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *mongoRecord) toRecord() *Record {
	return &Record{
		ID:         d.ID.Hex(),
		ExternalID: d.PublicID,
		Name:       d.Name,
		URL:        d.URL,
		CreatedAt:  d.CreatedAt,
	}
}

type MongoRecordStore struct {
	client      *mongo.Client
	collections map[media.Kind]collection
}

func NewMongoRecordStore(cfg *config.MongoRecordStrategy) (*MongoRecordStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("record mongo config is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	store := newMongoRecordStoreWithCollections(map[media.Kind]collection{
		media.KindImage: db.Collection(cfg.ImageCollection),
		media.KindVideo: db.Collection(cfg.VideoCollection),
	})
	store.client = client

	return store, nil
}

func newMongoRecordStoreWithCollections(collections map[media.Kind]collection) *MongoRecordStore {
	return &MongoRecordStore{collections: collections}
}

func (ms *MongoRecordStore) Close() error {
	if ms.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ms.client.Disconnect(ctx)
}

func (ms *MongoRecordStore) Insert(ctx context.Context, kind media.Kind, rec *Record) error {
	coll, err := ms.collection(kind)
	if err != nil {
		return err
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	// BSON dates carry millisecond precision.
	doc := mongoRecord{
		ID:        primitive.NewObjectID(),
		PublicID:  rec.ExternalID,
		Name:      rec.Name,
		URL:       rec.URL,
		CreatedAt: createdAt.Truncate(time.Millisecond),
	}

	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert %s record: %w", kind, err)
	}

	rec.ID = doc.ID.Hex()
	rec.CreatedAt = doc.CreatedAt
	return nil
}

func (ms *MongoRecordStore) FindAll(ctx context.Context, kind media.Kind) ([]*Record, error) {
	coll, err := ms.collection(kind)
	if err != nil {
		return nil, err
	}

	// ObjectIDs lead with their creation second, so _id order is insertion order.
	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", kind, err)
	}

	var docs []mongoRecord
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list %s records: %w", kind, err)
	}

	records := make([]*Record, 0, len(docs))
	for i := range docs {
		records = append(records, docs[i].toRecord())
	}

	return records, nil
}

func (ms *MongoRecordStore) FindByID(ctx context.Context, kind media.Kind, id string) (*Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	return ms.findOne(ctx, kind, bson.D{{Key: "_id", Value: oid}})
}

func (ms *MongoRecordStore) FindByExternalID(ctx context.Context, kind media.Kind, externalID string) (*Record, error) {
	return ms.findOne(ctx, kind, bson.D{{Key: "public_id", Value: externalID}})
}

func (ms *MongoRecordStore) DeleteByID(ctx context.Context, kind media.Kind, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	return ms.deleteOne(ctx, kind, bson.D{{Key: "_id", Value: oid}})
}

func (ms *MongoRecordStore) DeleteByExternalID(ctx context.Context, kind media.Kind, externalID string) error {
	return ms.deleteOne(ctx, kind, bson.D{{Key: "public_id", Value: externalID}})
}

func (ms *MongoRecordStore) findOne(ctx context.Context, kind media.Kind, filter bson.D) (*Record, error) {
	coll, err := ms.collection(kind)
	if err != nil {
		return nil, err
	}

	var doc mongoRecord
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s record: %w", kind, err)
	}

	return doc.toRecord(), nil
}

func (ms *MongoRecordStore) deleteOne(ctx context.Context, kind media.Kind, filter bson.D) error {
	coll, err := ms.collection(kind)
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete %s record: %w", kind, err)
	}

	if res == nil || res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (ms *MongoRecordStore) collection(kind media.Kind) (collection, error) {
	coll, ok := ms.collections[kind]
	if !ok {
		return nil, fmt.Errorf("no collection for media kind %q", kind)
	}

	return coll, nil
}

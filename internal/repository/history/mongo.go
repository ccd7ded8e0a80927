package history

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/oshokin/smart-home/internal/domain/house"
	"github.com/oshokin/smart-home/internal/logger"
)

// MongoRepository stores one document per record in a single collection.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// document is the stored shape of a Record.
type document struct {
	ID              string         `bson:"_id"`
	House           string         `bson:"house"`
	Timestamp       time.Time      `bson:"timestamp"`
	GroupExperiment string         `bson:"group_experiment"`
	LightsOnSeconds float64        `bson:"lights_on_seconds"`
	State           map[string]any `bson:"state"`
}

// NewMongoRepository connects to uri and verifies the primary is reachable.
func NewMongoRepository(ctx context.Context, uri, database, collection string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.InfoKV(ctx, "Connected to MongoDB", "database", database, "collection", collection)

	return &MongoRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Save inserts record.
func (r *MongoRepository) Save(ctx context.Context, record *Record) error {
	if _, err := r.collection.InsertOne(ctx, toDocument(record)); err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}

	return nil
}

// Latest groups the collection by house, keeping the newest document of each.
func (r *MongoRepository) Latest(ctx context.Context) (map[string]*Record, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$house"},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$doc"}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate history: %w", err)
	}

	defer func() { _ = cursor.Close(ctx) }()

	latest := make(map[string]*Record)

	for cursor.Next(ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode history document: %w", err)
		}

		record, err := fromDocument(&doc)
		if err != nil {
			logger.WarnKV(ctx, "Skipping invalid history document", "id", doc.ID, "error", err)
			continue
		}

		keepLatest(latest, record)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return latest, nil
}

// Close disconnects the client.
func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func toDocument(r *Record) *document {
	return &document{
		ID:              r.ID,
		House:           r.House,
		Timestamp:       r.Timestamp,
		GroupExperiment: r.GroupExperiment,
		LightsOnSeconds: r.LightsOn.Seconds(),
		State:           r.State.Map(),
	}
}

func fromDocument(doc *document) (*Record, error) {
	state, err := house.Decode(doc.State)
	if err != nil {
		return nil, fmt.Errorf("%w: state: %w", errBadRecord, err)
	}

	return &Record{
		ID:              doc.ID,
		House:           doc.House,
		Timestamp:       doc.Timestamp.UTC(),
		GroupExperiment: doc.GroupExperiment,
		LightsOn:        time.Duration(doc.LightsOnSeconds * float64(time.Second)),
		State:           state,
	}, nil
}

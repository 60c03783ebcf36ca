package mongodb

import (
	"context"
	"fmt"

	"github.com/apollo-music/songvault"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type database struct {
	client *mongo.Client
	db     *mongo.Database
	tables songvault.Tables
}

// Connect creates a MongoDB client for uri and selects the named database.
// Tables should be validated before calling Connect; Tables.Songs is used as
// the collection name.
func Connect(ctx context.Context, uri, dbName string, tables songvault.Tables) (*database, error) {
	if dbName == "" {
		return nil, fmt.Errorf("connect mongodb: database name cannot be empty")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	return &database{
		client: client,
		db:     client.Database(dbName),
		tables: tables,
	}, nil
}

// Ping verifies the primary is reachable.
func (d *database) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Migrate creates the songs collection with its schema validator and the
// list order index. It is idempotent.
func (d *database) Migrate(ctx context.Context) error {
	name := d.tables.Songs

	exists, err := d.collectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if !exists {
		opts := options.CreateCollection().SetValidator(songsValidator)
		if err := d.db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("migrate: create collection %s: %w", name, err)
		}
	}

	_, err = d.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName(fmt.Sprintf("idx_%s_list_order", name)),
	})
	if err != nil {
		return fmt.Errorf("migrate: create index: %w", err)
	}

	return nil
}

// Validate checks that the songs collection exists.
func (d *database) Validate(ctx context.Context) error {
	exists, err := d.collectionExists(ctx, d.tables.Songs)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", d.tables.Songs, err)
	}

	if !exists {
		return fmt.Errorf("validate schema %s: collection does not exist", d.tables.Songs)
	}

	return nil
}

// GetRepo returns the SongRepo for database operations.
func (d *database) GetRepo() songvault.SongRepo {
	return &Repo{coll: d.db.Collection(d.tables.Songs)}
}

// Close disconnects the client.
func (d *database) Close() error {
	return d.client.Disconnect(context.Background())
}

// Drop removes the songs collection.
func (d *database) Drop(ctx context.Context) error {
	return d.db.Collection(d.tables.Songs).Drop(ctx)
}

func (d *database) collectionExists(ctx context.Context, name string) (bool, error) {
	names, err := d.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	return len(names) > 0, nil
}

var songsValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": bson.A{"name", "artist", "year", "fileUrl"},
		"properties": bson.M{
			"name":    bson.M{"bsonType": "string"},
			"artist":  bson.M{"bsonType": "string"},
			"year":    bson.M{"bsonType": bson.A{"int", "long"}},
			"fileUrl": bson.M{"bsonType": "string"},
		},
	},
}

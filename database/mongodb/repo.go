// Package mongodb implements songvault.SongRepo using a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apollo-music/songvault"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type songDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	Name          string             `bson:"name"`
	Artist        string             `bson:"artist"`
	Year          int                `bson:"year"`
	FileURL       string             `bson:"fileUrl"`
	ContentType   string             `bson:"contentType,omitempty"`
	FileSizeBytes int64              `bson:"fileSizeBytes,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt,omitempty"`
}

func toDocument(s songvault.Song) (songDocument, error) {
	oid, err := primitive.ObjectIDFromHex(string(s.ID))
	if err != nil {
		return songDocument{}, fmt.Errorf("song id %q: %w", s.ID, songvault.ErrInvalidInput)
	}

	return songDocument{
		ID:            oid,
		Name:          s.Name,
		Artist:        s.Artist,
		Year:          s.Year,
		FileURL:       s.FileLocation,
		ContentType:   s.ContentType,
		FileSizeBytes: s.FileSizeBytes,
		CreatedAt:     s.CreatedAt,
	}, nil
}

// fromDocument also accepts documents written without createdAt, taking the
// creation time from the ObjectID instead.
func fromDocument(d songDocument) songvault.Song {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = d.ID.Timestamp()
	}

	return songvault.Song{
		ID:            songvault.SongID(d.ID.Hex()),
		Name:          d.Name,
		Artist:        d.Artist,
		Year:          d.Year,
		FileLocation:  d.FileURL,
		ContentType:   d.ContentType,
		FileSizeBytes: d.FileSizeBytes,
		CreatedAt:     createdAt.UTC(),
	}
}

type Repo struct {
	coll *mongo.Collection
}

// NewRepo returns a SongRepo over the collection.
func NewRepo(coll *mongo.Collection) *Repo {
	return &Repo{coll: coll}
}

func (r *Repo) Insert(ctx context.Context, song songvault.Song) (songvault.Song, error) {
	if song.ID == "" {
		song.ID = songvault.SongID(primitive.NewObjectID().Hex())
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now()
	}
	// BSON dates keep milliseconds
	song.CreatedAt = song.CreatedAt.UTC().Truncate(time.Millisecond)

	doc, err := toDocument(song)
	if err != nil {
		return songvault.Song{}, fmt.Errorf("insert: %w", err)
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return songvault.Song{}, fmt.Errorf("insert: %w", err)
	}

	return fromDocument(doc), nil
}

func (r *Repo) FindAll(ctx context.Context) ([]songvault.Song, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}

	var docs []songDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("find all: %w", err)
	}

	songs := make([]songvault.Song, 0, len(docs))
	for _, d := range docs {
		songs = append(songs, fromDocument(d))
	}

	return songs, nil
}

func (r *Repo) FindByID(ctx context.Context, id songvault.SongID) (songvault.Song, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return songvault.Song{}, fmt.Errorf("find by id %q: %w", id, songvault.ErrInvalidInput)
	}

	var doc songDocument
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return songvault.Song{}, songvault.ErrNotFound
		}
		return songvault.Song{}, fmt.Errorf("find by id: %w", err)
	}

	return fromDocument(doc), nil
}

func (r *Repo) DeleteByID(ctx context.Context, id songvault.SongID) error {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return fmt.Errorf("delete by id %q: %w", id, songvault.ErrInvalidInput)
	}

	result, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete by id: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("delete by id: %w", songvault.ErrNotFound)
	}

	return nil
}

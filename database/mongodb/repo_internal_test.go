package mongodb

import (
	"testing"
	"time"

	"github.com/apollo-music/songvault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDocumentRoundTrip(t *testing.T) {
	song := songvault.Song{
		ID:            songvault.NewSongID(),
		Name:          "Imagine",
		Artist:        "John Lennon",
		Year:          1971,
		FileLocation:  "http://localhost:9000/songs/abc-imagine.mp3",
		ContentType:   "audio/mpeg",
		FileSizeBytes: 3,
		CreatedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	doc, err := toDocument(song)
	require.NoError(t, err)
	assert.Equal(t, song, fromDocument(doc))
}

func TestToDocument_InvalidID(t *testing.T) {
	_, err := toDocument(songvault.Song{ID: "nope"})
	assert.ErrorIs(t, err, songvault.ErrInvalidInput)
}

func TestFromDocument_LegacyDocument(t *testing.T) {
	// documents written before createdAt existed only carry the original fields
	oid := primitive.NewObjectIDFromTimestamp(time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC))
	raw, err := bson.Marshal(bson.M{
		"_id":     oid,
		"name":    "Imagine",
		"artist":  "John Lennon",
		"year":    1971,
		"fileUrl": "http://localhost:9000/songs/abc-imagine.mp3",
		"_class":  "com.example.Song",
	})
	require.NoError(t, err)

	var doc songDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))

	song := fromDocument(doc)
	assert.Equal(t, songvault.SongID(oid.Hex()), song.ID)
	assert.Equal(t, 1971, song.Year)
	assert.Equal(t, "http://localhost:9000/songs/abc-imagine.mp3", song.FileLocation)
	assert.Equal(t, time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC), song.CreatedAt)
}

// Package repotest holds the behavior every songvault.SongRepo backend shares,
// run by each backend's tests against its own storage.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/apollo-music/songvault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewRepoFunc returns an empty repository private to the calling test.
type NewRepoFunc func(t *testing.T) songvault.SongRepo

func sampleSong(name string) songvault.Song {
	return songvault.Song{
		Name:          name,
		Artist:        "John Lennon",
		Year:          1971,
		FileLocation:  "file://data/abc-" + name + ".mp3",
		ContentType:   "audio/mpeg",
		FileSizeBytes: 3,
	}
}

// Run exercises the SongRepo contract.
func Run(t *testing.T, newRepo NewRepoFunc) {
	t.Run("insert assigns id and created at", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		before := time.Now().Add(-time.Second)
		song, err := repo.Insert(ctx, sampleSong("imagine"))
		require.NoError(t, err)

		_, err = songvault.ParseSongID(string(song.ID))
		assert.NoError(t, err, "id must be a valid song id")
		assert.True(t, song.CreatedAt.After(before))
		assert.Equal(t, "imagine", song.Name)
	})

	t.Run("insert keeps supplied id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		in := sampleSong("imagine")
		in.ID = songvault.NewSongID()

		song, err := repo.Insert(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in.ID, song.ID)
	})

	t.Run("find by id round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		inserted, err := repo.Insert(ctx, sampleSong("imagine"))
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, inserted.ID)
		require.NoError(t, err)

		assert.Equal(t, inserted.ID, found.ID)
		assert.Equal(t, inserted.Name, found.Name)
		assert.Equal(t, inserted.Artist, found.Artist)
		assert.Equal(t, inserted.Year, found.Year)
		assert.Equal(t, inserted.FileLocation, found.FileLocation)
		assert.Equal(t, inserted.ContentType, found.ContentType)
		assert.Equal(t, inserted.FileSizeBytes, found.FileSizeBytes)
		assert.WithinDuration(t, inserted.CreatedAt, found.CreatedAt, time.Millisecond)
	})

	t.Run("find by id not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByID(context.Background(), "000000000000000000000000")
		assert.ErrorIs(t, err, songvault.ErrNotFound)
	})

	t.Run("find all empty", func(t *testing.T) {
		repo := newRepo(t)

		songs, err := repo.FindAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, songs)
		assert.Empty(t, songs)
	})

	t.Run("find all in creation order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		names := []string{"first", "second", "third"}
		for _, name := range names {
			_, err := repo.Insert(ctx, sampleSong(name))
			require.NoError(t, err)
		}

		songs, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, songs, len(names))
		for i, name := range names {
			assert.Equal(t, name, songs[i].Name)
		}
	})

	t.Run("duplicate metadata is allowed", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, err := repo.Insert(ctx, sampleSong("imagine"))
		require.NoError(t, err)
		b, err := repo.Insert(ctx, sampleSong("imagine"))
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("delete by id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		keep, err := repo.Insert(ctx, sampleSong("keep"))
		require.NoError(t, err)
		gone, err := repo.Insert(ctx, sampleSong("gone"))
		require.NoError(t, err)

		require.NoError(t, repo.DeleteByID(ctx, gone.ID))

		_, err = repo.FindByID(ctx, gone.ID)
		assert.ErrorIs(t, err, songvault.ErrNotFound)

		songs, err := repo.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, songs, 1)
		assert.Equal(t, keep.ID, songs[0].ID)

		assert.ErrorIs(t, repo.DeleteByID(ctx, gone.ID), songvault.ErrNotFound)
	})

	t.Run("n creates minus m deletes", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var ids []songvault.SongID
		for i := 0; i < 5; i++ {
			song, err := repo.Insert(ctx, sampleSong("song"))
			require.NoError(t, err)
			ids = append(ids, song.ID)
		}
		for _, id := range ids[:2] {
			require.NoError(t, repo.DeleteByID(ctx, id))
		}

		songs, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, songs, 3)
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := newRepo(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.FindAll(ctx)
		assert.Error(t, err)
	})
}

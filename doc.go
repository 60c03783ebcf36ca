// Package songvault manages songs: descriptive metadata kept in a metadata store
// and the audio file kept as a blob in an object store.
//
// SongService coordinates the two stores without a transaction. Uploads write the
// blob before the record and deletes remove the blob before the record, so a
// failure between the two steps can leave an orphaned blob (create) or a record
// whose blob is gone (delete). Sweep reports both.
//
// # Key Components
//
//   - SongService: orchestration of uploads, reads, deletes and downloads
//   - SongRepo: metadata persistence (SQLite, PostgreSQL, MongoDB)
//   - ObjectStore: blob persistence (filesystem, MinIO/S3)
//
// # Identifiers
//
// A SongID names a record and a StorageName names a blob. Records carry the blob's
// location, and ObjectStore.Resolve turns a location back into a StorageName. The
// two identifiers are never interchangeable.
//
// # Example Usage
//
//	service, err := songvault.NewSongService(repo, store, songvault.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	song, err := service.Create(ctx, songvault.NewSong{Name: "Imagine", Artist: "John Lennon", Year: 1971}, upload)
//
//	blob, err := service.Download(ctx, name)
//	defer blob.Body.Close()
//
// See the http package for the REST API and the database and storage packages for
// backend implementations.
package songvault

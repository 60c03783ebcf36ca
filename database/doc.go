// Package database selects and opens the song metadata backend named in
// Config.Type: "sqlite" (modernc.org/sqlite), "postgres" (pgx) or "mongodb"
// (the official driver). Each backend lives in its own subpackage and hands
// out a songvault.SongRepo through Database.GetRepo.
//
// Open is what the server and the admin commands use:
//
//	db, err := database.Open(ctx, database.Config{
//	    Type:   "postgres",
//	    DSN:    "postgres://localhost:5432/songvault",
//	    Tables: songvault.Tables{Songs: "songs"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
// It pings the backend, creates the songs table or collection and checks the
// resulting schema. Connect skips those steps.
package database

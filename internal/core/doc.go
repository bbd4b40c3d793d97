// Package core provides session databases: ingestion of uploaded files and
// case-insensitive lookup across them.
//
// The package has no UI or transport dependencies. The web server, the CLI
// and tests all drive it through [Service].
//
// # Sessions
//
// A [Session] owns the databases one user has loaded. Sessions live in a
// [SessionStore], start empty, and are discarded on [SessionStore.End] or
// when the sweeper started by [StartSessionSweeper] finds them idle.
//
// # Ingestion
//
// [Service.Upload] takes a batch of files. The kind comes from the file
// extension (json, csv, txt). Each file is decoded, parsed and either
// appended to the session as a [LoadedDatabase] or rejected on its own:
//
//	report, err := svc.Upload(ctx, sess, []core.FileInput{
//	    {Name: "people.csv", Size: -1, Reader: f},
//	})
//
// # Lookup
//
// [Service.Lookup] scans every loaded database for records with a value
// containing the query, ignoring case, while the optional [RemoteSource] is
// asked in parallel. Remote results are appended as the online database.
//
// # Errors
//
// Validation and parse failures are sentinel errors ([ErrEmptyQuery],
// [ErrNoDatabases], [ErrUnsupportedFormat], ...). [MapError] turns any error
// into a [UserMessage] with a support code.
package core

package core

import "errors"

// Input validation errors. Reported immediately, no state change.
var (
	ErrEmptyQuery     = errors.New("empty query")
	ErrNoDatabases    = errors.New("no databases loaded")
	ErrNoFiles        = errors.New("no files selected")
	ErrMissingInput   = errors.New("missing required input")
	ErrInvalidRequest = errors.New("invalid request body")
)

// Per-file parse errors. The file is skipped, other files are unaffected.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidJSON       = errors.New("invalid json")
	ErrFileTooLarge      = errors.New("file too large")
)

// ErrSearchFailed is returned by Lookup when the remote collaborator failed
// and there were no local matches to fall back on.
var ErrSearchFailed = errors.New("database search failed")

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

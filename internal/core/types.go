package core

import (
	"io"
	"time"
)

// Kind is the detected format of an uploaded database file.
type Kind string

const (
	KindJSON Kind = "json"
	KindCSV  Kind = "csv"
	KindText Kind = "text"
)

// Source tells where a group of lookup matches came from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceOnline Source = "online"
)

// OnlineDatabaseName labels remote lookup results in a LookupResult.
const OnlineDatabaseName = "Online database"

// DisplayLimit is the number of matches shown per database before the
// remainder is summarised.
const DisplayLimit = 10

// LoadedDatabase is one uploaded file held in a session.
type LoadedDatabase struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"` // Original filename, not necessarily unique
	Kind       Kind      `json:"kind"`
	Records    []Record  `json:"records"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Summary is the list view of a LoadedDatabase without its records.
type Summary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        Kind      `json:"kind"`
	RecordCount int       `json:"recordCount"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Summary returns the list view of the database.
func (d *LoadedDatabase) Summary() Summary {
	return Summary{
		ID:          d.ID,
		Name:        d.Name,
		Kind:        d.Kind,
		RecordCount: len(d.Records),
		UploadedAt:  d.UploadedAt,
	}
}

// FileInput is one file of an upload batch.
type FileInput struct {
	Name   string
	Size   int64 // -1 if unknown
	Reader io.Reader
}

// IngestOutcome reports what happened to a single file of a batch.
// Exactly one of Database and Err is set.
type IngestOutcome struct {
	FileName string
	Database *LoadedDatabase
	Err      error
}

// OK reports whether the file was added to the session.
func (o IngestOutcome) OK() bool {
	return o.Err == nil && o.Database != nil
}

// UploadReport is the result of one upload batch, outcomes in input order.
type UploadReport struct {
	Outcomes []IngestOutcome
	Added    int
	Failed   int
}

// DatabaseMatches groups the records of one database that matched a query.
type DatabaseMatches struct {
	Database string   `json:"database"`
	Source   Source   `json:"source"`
	Matches  []Record `json:"matches"`
}

// Shown returns the matches that fit within DisplayLimit.
func (m DatabaseMatches) Shown() []Record {
	if len(m.Matches) <= DisplayLimit {
		return m.Matches
	}
	return m.Matches[:DisplayLimit]
}

// Remaining returns how many matches were cut off by DisplayLimit.
func (m DatabaseMatches) Remaining() int {
	if len(m.Matches) <= DisplayLimit {
		return 0
	}
	return len(m.Matches) - DisplayLimit
}

// LookupResult is the structured outcome of a lookup.
type LookupResult struct {
	Query   string            `json:"query"`
	Results []DatabaseMatches `json:"results"`
	Total   int               `json:"total"`

	// RemoteErr is set when the remote collaborator failed but local
	// results were still returned.
	RemoteErr error `json:"-"`
}

// Empty reports whether nothing matched anywhere.
func (r *LookupResult) Empty() bool {
	return len(r.Results) == 0
}

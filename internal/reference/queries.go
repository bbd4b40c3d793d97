package reference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// TableName is the reference records table.
const TableName = "reference_records"

// The data column is json, not jsonb, so field order survives the round trip.
const createSchema = `
CREATE TABLE IF NOT EXISTS reference_records (
    id         uuid PRIMARY KEY,
    seq        bigint GENERATED ALWAYS AS IDENTITY,
    source     text        NOT NULL,
    data       json        NOT NULL,
    created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS reference_records_source_idx ON reference_records (source);
CREATE INDEX IF NOT EXISTS reference_records_seq_idx ON reference_records (seq);
`

// CreateSchema creates the table and indexes if they are missing.
func (q *Queries) CreateSchema(ctx context.Context) error {
	if _, err := q.db.Exec(ctx, createSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const searchRecords = `
SELECT r.source, r.data::text
FROM reference_records r
WHERE EXISTS (
    SELECT 1 FROM json_each_text(r.data) AS f
    WHERE f.value ILIKE $1 ESCAPE '\'
)
ORDER BY r.seq
LIMIT $2
`

// SearchRecordsParams are the arguments of SearchRecords.
type SearchRecordsParams struct {
	Pattern string // ILIKE pattern, see ContainsPattern
	Limit   int32
}

// SearchRow is one matched row.
type SearchRow struct {
	Source string
	Data   string
}

// SearchRecords returns rows with any top-level value matching the pattern,
// in insertion order.
func (q *Queries) SearchRecords(ctx context.Context, arg SearchRecordsParams) ([]SearchRow, error) {
	rows, err := q.db.Query(ctx, searchRecords, arg.Pattern, arg.Limit)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	var items []SearchRow
	for rows.Next() {
		var i SearchRow
		if err := rows.Scan(&i.Source, &i.Data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	return items, nil
}

const deleteSource = `DELETE FROM reference_records WHERE source = $1`

// DeleteSource removes every row imported from source.
func (q *Queries) DeleteSource(ctx context.Context, source string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteSource, source)
	if err != nil {
		return 0, fmt.Errorf("delete source %s: %w", source, err)
	}
	return tag.RowsAffected(), nil
}

const listSources = `
SELECT source, count(*), max(created_at)
FROM reference_records
GROUP BY source
ORDER BY source
`

// SourceCount summarises one imported source.
type SourceCount struct {
	Source     string
	Records    int64
	ImportedAt time.Time
}

// ListSources returns every source with its record count.
func (q *Queries) ListSources(ctx context.Context) ([]SourceCount, error) {
	rows, err := q.db.Query(ctx, listSources)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var items []SourceCount
	for rows.Next() {
		var i SourceCount
		if err := rows.Scan(&i.Source, &i.Records, &i.ImportedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return items, nil
}

// CopyRecordsParams is one row for CopyRecords.
type CopyRecordsParams struct {
	ID        uuid.UUID
	Source    string
	Data      string // JSON object text
	CreatedAt time.Time
}

var copyColumns = []string{"id", "source", "data", "created_at"}

// CopyRecords bulk inserts rows with the COPY protocol.
func (q *Queries) CopyRecords(ctx context.Context, arg []CopyRecordsParams) (int64, error) {
	n, err := q.db.CopyFrom(ctx, pgx.Identifier{TableName}, copyColumns, &copySource{rows: arg, idx: -1})
	if err != nil {
		return 0, fmt.Errorf("copy records: %w", err)
	}
	return n, nil
}

// copySource adapts []CopyRecordsParams to pgx.CopyFromSource.
type copySource struct {
	rows []CopyRecordsParams
	idx  int
}

func (s *copySource) Next() bool {
	s.idx++
	return s.idx < len(s.rows)
}

func (s *copySource) Values() ([]any, error) {
	r := s.rows[s.idx]
	return []any{pgtype.UUID{Bytes: r.ID, Valid: true}, r.Source, r.Data, r.CreatedAt}, nil
}

func (s *copySource) Err() error { return nil }

// ContainsPattern builds an ILIKE pattern matching values that contain
// query, with LIKE metacharacters escaped.
func ContainsPattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}

package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultSearchLimit caps rows returned by Search when no limit is set.
const DefaultSearchLimit = 100

// Store imports loaded databases and searches them.
type Store struct {
	conn  Conn
	q     *Queries
	limit int32
	now   func() time.Time
}

// NewStore creates a Store. limit <= 0 uses DefaultSearchLimit.
func NewStore(conn Conn, limit int) *Store {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &Store{
		conn:  conn,
		q:     New(conn),
		limit: int32(limit),
		now:   time.Now,
	}
}

// PoolOptions configures Connect.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens and pings a pgx pool.
func Connect(ctx context.Context, url string, opts PoolOptions) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns >= 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the reference table if needed.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.q.CreateSchema(ctx)
}

// Search returns stored records with any value containing query, ignoring
// case. An empty query returns no records.
func (s *Store) Search(ctx context.Context, query string) ([]core.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []core.Record{}, nil
	}

	rows, err := s.q.SearchRecords(ctx, SearchRecordsParams{
		Pattern: ContainsPattern(query),
		Limit:   s.limit,
	})
	if err != nil {
		return nil, err
	}

	records := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		parsed, err := core.ParseJSON(row.Data)
		if err != nil {
			return nil, fmt.Errorf("decode %s record: %w", row.Source, err)
		}
		records = append(records, parsed...)
	}
	return records, nil
}

// Import replaces every row of db.Name with the records of db, in one
// transaction. It returns the number of rows written.
func (s *Store) Import(ctx context.Context, db *core.LoadedDatabase) (int64, error) {
	params, err := copyParams(db, s.now())
	if err != nil {
		return 0, err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx) // No-op once committed

	qtx := s.q.WithTx(tx)
	replaced, err := qtx.DeleteSource(ctx, db.Name)
	if err != nil {
		return 0, err
	}

	n, err := qtx.CopyRecords(ctx, params)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	logging.FromContext(ctx).Info("reference source imported",
		"source", db.Name,
		"kind", db.Kind,
		"records", n,
		"replaced", replaced,
	)
	return n, nil
}

// Sources lists imported sources.
func (s *Store) Sources(ctx context.Context) ([]SourceCount, error) {
	return s.q.ListSources(ctx)
}

// Remove deletes every row of source.
func (s *Store) Remove(ctx context.Context, source string) (int64, error) {
	return s.q.DeleteSource(ctx, source)
}

// copyParams turns records into COPY rows. Text records are stored as
// {"value": line} so every row is an object.
func copyParams(db *core.LoadedDatabase, now time.Time) ([]CopyRecordsParams, error) {
	params := make([]CopyRecordsParams, 0, len(db.Records))
	for i, rec := range db.Records {
		var data []byte
		var err error
		if rec.IsText() {
			data, err = json.Marshal(map[string]string{"value": rec.Text()})
		} else {
			data, err = json.Marshal(rec)
		}
		if err != nil {
			return nil, fmt.Errorf("encode record %d of %s: %w", i, db.Name, err)
		}

		params = append(params, CopyRecordsParams{
			ID:        uuid.New(),
			Source:    db.Name,
			Data:      string(data),
			CreatedAt: now,
		})
	}
	return params, nil
}

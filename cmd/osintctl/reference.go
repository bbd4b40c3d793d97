package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/JonMunkholm/osintdesk/internal/config"
	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/reference"
	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/olekukonko/tablewriter"
)

// importTimeout bounds one seed file import.
const importTimeout = 5 * time.Minute

// openStore connects to the configured reference database.
func openStore(ctx context.Context, cfg *config.Config) (*reference.Store, *pgxpool.Pool, error) {
	if !cfg.Reference.Enabled() {
		return nil, nil, errors.New("DATABASE_URL is not set")
	}
	pool, err := reference.Connect(ctx, cfg.Reference.URL, reference.PoolOptions{
		MaxConns:        cfg.Reference.MaxConns,
		MinConns:        0,
		MaxConnLifetime: cfg.Reference.MaxConnLifetime,
		MaxConnIdleTime: cfg.Reference.MaxConnIdleTime,
	})
	if err != nil {
		return nil, nil, err
	}
	store := reference.NewStore(pool, cfg.Search.ReferenceLimit)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool, nil
}

// runSeed parses each file and replaces its rows in the reference store.
func runSeed(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: seed needs at least one file", errUsage)
	}

	store, pool, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := core.NewService(core.Options{
		MaxFileSize: cfg.Upload.MaxFileSize,
		CSVQuoting:  cfg.Upload.CSVQuoting,
	})

	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	files, closeFiles := openFiles(paths)
	defer closeFiles()

	var failed int
	for _, f := range files {
		if err := seedFile(ctx, svc, store, f, stdout); err != nil {
			failed++
			color.New(color.FgRed).Fprintf(stdout, "✗ %s: %v\n", f.Name, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func seedFile(ctx context.Context, svc *core.Service, store *reference.Store, f core.FileInput, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, importTimeout)
	defer cancel()

	db, err := svc.IngestFile(ctx, f)
	if err != nil {
		return errors.New(core.FormatUserError(err))
	}
	n, err := store.Import(ctx, db)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(stdout, "✓ %s: %d records imported\n", db.Name, n)
	return nil
}

func runSources(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	store, pool, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	sources, err := store.Sources(ctx)
	if err != nil {
		return err
	}
	printSources(stdout, sources)
	return nil
}

func printSources(w io.Writer, sources []reference.SourceCount) {
	if len(sources) == 0 {
		color.New(color.FgYellow).Fprintln(w, "reference store is empty")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Source", "Records", "Imported"})
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, s := range sources {
		table.Append([]string{
			s.Source,
			strconv.FormatInt(s.Records, 10),
			s.ImportedAt.Local().Format(time.DateTime),
		})
	}
	table.Render()
}

func runRemove(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: remove needs exactly one source", errUsage)
	}

	store, pool, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := store.Remove(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "removed %d records of %s\n", n, args[0])
	return nil
}

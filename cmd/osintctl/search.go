package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/osintdesk/internal/config"
	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/remote"
	"github.com/fatih/color"
	"github.com/spf13/pflag"
)

func runSearch(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("search", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		remoteURL  = fs.StringP("remote", "r", cfg.Search.RemoteURL, "Base URL of a remote search service")
		timeout    = fs.Duration("timeout", cfg.Search.RemoteTimeout, "Remote search timeout")
		csvQuoting = fs.Bool("csv-quoting", cfg.Upload.CSVQuoting, "Parse CSV with RFC 4180 quoting")
		jsonOut    = fs.Bool("json", false, "Print the result as JSON")
		all        = fs.BoolP("all", "a", false, "Print every match instead of the first 10 per database")
	)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("%w: search needs a query and at least one file", errUsage)
	}
	query, paths := fs.Arg(0), fs.Args()[1:]

	opts := core.Options{
		MaxFileSize:      cfg.Upload.MaxFileSize,
		BatchConcurrency: cfg.Upload.BatchConcurrency,
		CSVQuoting:       *csvQuoting,
		RemoteTimeout:    *timeout,
	}
	if *remoteURL != "" {
		opts.Remote = remote.New(*remoteURL, *timeout,
			remote.WithRateLimit(cfg.Search.RemoteRateLimit, cfg.Search.RemoteBurst))
	}
	svc := core.NewService(opts)

	paths, err := expandPaths(paths)
	if err != nil {
		return err
	}
	files, closeFiles := openFiles(paths)
	defer closeFiles()

	sess := core.NewSession()
	report, err := svc.Upload(ctx, sess, files)
	if err != nil {
		return err
	}
	printReport(stderr, report)

	result, err := svc.Lookup(ctx, sess, query)
	if err != nil {
		return errors.New(core.FormatUserError(err))
	}

	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(stdout, result, *all)
	return nil
}

func printReport(w io.Writer, report *core.UploadReport) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	for _, o := range report.Outcomes {
		if o.OK() {
			green.Fprintf(w, "✓ %s: %d records (%s)\n", o.FileName, len(o.Database.Records), o.Database.Kind)
			continue
		}
		red.Fprintf(w, "✗ %s: %s\n", o.FileName, core.FormatUserError(o.Err))
	}
}

// printResult writes the lookup grouped by database. Unless all is set only
// core.DisplayLimit matches per database are printed.
func printResult(w io.Writer, res *core.LookupResult, all bool) {
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow)
	bold := color.New(color.Bold)

	cyan.Fprintf(w, "Query: %s\n", res.Query)
	fmt.Fprintf(w, "Found %d records in %d databases\n", res.Total, len(res.Results))
	if res.RemoteErr != nil {
		yellow.Fprintf(w, "remote search unavailable: %s\n", core.MapError(res.RemoteErr).Message)
	}
	if res.Empty() {
		yellow.Fprintf(w, "Nothing matched %q\n", res.Query)
		return
	}

	for _, group := range res.Results {
		fmt.Fprintln(w)
		cyan.Fprintf(w, "== %s (%d)\n", group.Database, len(group.Matches))

		shown := group.Shown()
		if all {
			shown = group.Matches
		}
		for _, rec := range shown {
			if rec.IsText() {
				fmt.Fprintf(w, "  %s\n", rec.Text())
				continue
			}
			for i, f := range rec.Fields() {
				prefix := "   "
				if i == 0 {
					prefix = "  -"
				}
				fmt.Fprintf(w, "%s %s %s\n", prefix, bold.Sprint(f.Name+":"), f.Value)
			}
		}
		if n := group.Remaining(); n > 0 && !all {
			yellow.Fprintf(w, "  ... and %d more\n", n)
		}
	}
}

// Command osintctl searches database files from the terminal and manages the
// reference store behind /api/database-search.
//
// Usage:
//
//	osintctl search [flags] QUERY FILE...
//	osintctl seed FILE...
//	osintctl sources
//	osintctl remove SOURCE
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/osintdesk/internal/config"
	"github.com/JonMunkholm/osintdesk/internal/logging"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

const usage = `Usage:
  osintctl search [flags] QUERY FILE...   search local database files
  osintctl seed FILE...                   import files into the reference store
  osintctl sources                        list reference store sources
  osintctl remove SOURCE                  delete a reference store source
`

var errUsage = errors.New("invalid usage")

func main() {
	// A missing .env is fine, the environment still applies
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one subcommand and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, color.RedString("config: %v", err))
		return 1
	}
	closer := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Stdout: stderr,
		File: logging.FileOptions{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		},
	})
	defer closer.Close()

	var cmdErr error
	switch args[0] {
	case "search":
		cmdErr = runSearch(ctx, cfg, args[1:], stdout, stderr)
	case "seed":
		cmdErr = runSeed(ctx, cfg, args[1:], stdout)
	case "sources":
		cmdErr = runSources(ctx, cfg, stdout)
	case "remove":
		cmdErr = runRemove(ctx, cfg, args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		cmdErr = fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	switch {
	case cmdErr == nil:
		return 0
	case errors.Is(cmdErr, errUsage):
		fmt.Fprintln(stderr, color.RedString("%v", cmdErr))
		fmt.Fprint(stderr, usage)
		return 2
	default:
		fmt.Fprintln(stderr, color.RedString("✗ %v", cmdErr))
		return 1
	}
}

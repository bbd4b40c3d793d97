package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/osintdesk/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// IngestFile reads and parses a single file into a LoadedDatabase. It never
// touches a session, so a failed file leaves no trace.
func (s *Service) IngestFile(ctx context.Context, in FileInput) (*LoadedDatabase, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind, err := DetectKind(in.Name)
	if err != nil {
		return nil, err
	}

	if s.opts.MaxFileSize > 0 && in.Size > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, in.Size, s.opts.MaxFileSize)
	}

	if in.Reader == nil {
		return nil, fmt.Errorf("read file %s: no content", in.Name)
	}
	content, err := readContent(in.Reader, s.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}

	records, err := Parse(kind, content, ParseOptions{CSVQuoting: s.opts.CSVQuoting})
	if err != nil {
		return nil, err
	}

	return &LoadedDatabase{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Kind:       kind,
		Records:    records,
		UploadedAt: s.now(),
	}, nil
}

// Upload ingests a batch of files into sess. Each file is parsed
// independently: a failure is reported in that file's outcome and does not
// affect the others. Successful databases are appended to the session as
// they complete; outcomes are returned in input order.
func (s *Service) Upload(ctx context.Context, sess *Session, files []FileInput) (*UploadReport, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	if s.opts.Limiter != nil {
		release, err := s.opts.Limiter.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	logger := logging.WithFields(ctx, "files", len(files))
	logger.Debug("upload started")

	outcomes := make([]IngestOutcome, len(files))

	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)
	for i, f := range files {
		g.Go(func() error {
			db, err := s.IngestFile(ctx, f)
			outcomes[i] = IngestOutcome{FileName: f.Name, Database: db, Err: err}

			if err != nil {
				kind, _ := DetectKind(f.Name)
				s.metrics.fileIngested(kind, err, 0)
				logger.Warn("file rejected", "file", f.Name, "error", err)
				return nil
			}

			sess.Add(db)
			s.metrics.fileIngested(db.Kind, nil, len(db.Records))
			logger.Info("database loaded",
				"file", db.Name,
				"kind", db.Kind,
				"records", len(db.Records),
			)
			return nil
		})
	}
	_ = g.Wait()

	report := &UploadReport{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.OK() {
			report.Added++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

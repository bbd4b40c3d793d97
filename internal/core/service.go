package core

import (
	"context"
	"time"
)

// RemoteSource is the remote lookup collaborator queried alongside the local
// scan. It returns an empty slice when nothing is found; any error is
// treated as "no remote results".
type RemoteSource interface {
	Search(ctx context.Context, query string) ([]Record, error)
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	MaxFileSize      int64         // Per-file byte limit, <= 0 disables
	BatchConcurrency int           // Files parsed in parallel per upload (default: 4)
	CSVQuoting       bool          // RFC 4180 CSV parsing instead of plain splitting
	RemoteTimeout    time.Duration // Upper bound for the remote call, <= 0 means caller's context only

	Remote  RemoteSource   // Optional
	Limiter *UploadLimiter // Optional process-wide upload bound
	Metrics *Metrics       // Optional
}

// DefaultBatchConcurrency is how many files of one batch are parsed at once.
const DefaultBatchConcurrency = 4

// Service provides ingestion and lookup over sessions. It holds no session
// state itself and is safe for concurrent use.
type Service struct {
	opts    Options
	metrics *Metrics
	now     func() time.Time
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = DefaultBatchConcurrency
	}
	m := opts.Metrics
	if m == nil {
		m = NewMetrics(nil)
	}
	return &Service{
		opts:    opts,
		metrics: m,
		now:     time.Now,
	}
}

// HasRemote reports whether a remote lookup collaborator is configured.
func (s *Service) HasRemote() bool {
	return s.opts.Remote != nil
}

// UploadStatus returns the upload limiter state, or a zero status when no
// limiter is configured.
func (s *Service) UploadStatus() UploadStatus {
	if s.opts.Limiter == nil {
		return UploadStatus{}
	}
	return s.opts.Limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	if s.opts.Limiter == nil {
		return nil
	}
	return s.opts.Limiter.Drain(ctx)
}

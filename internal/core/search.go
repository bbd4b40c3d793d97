package core

import (
	"context"
	"strings"
	"time"

	"github.com/JonMunkholm/osintdesk/internal/logging"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// matcher tests records against one lowercased query.
type matcher struct {
	caser cases.Caser
	query string
}

func newMatcher(query string) *matcher {
	c := cases.Lower(language.Und)
	return &matcher{caser: c, query: c.String(query)}
}

// match reports whether any value of rec contains the query, ignoring case.
func (m *matcher) match(rec Record) bool {
	for _, v := range rec.Values() {
		if strings.Contains(m.caser.String(v), m.query) {
			return true
		}
	}
	return false
}

// MatchRecord reports whether any value of rec contains query, ignoring case.
func MatchRecord(rec Record, query string) bool {
	return newMatcher(query).match(rec)
}

// SearchDatabases scans dbs in order and returns the matches of every
// database with at least one hit. Match order follows record order; there
// is no ranking and no deduplication across databases.
func SearchDatabases(dbs []*LoadedDatabase, query string) *LookupResult {
	m := newMatcher(query)
	result := &LookupResult{Query: query, Results: []DatabaseMatches{}}

	for _, db := range dbs {
		var matches []Record
		for _, rec := range db.Records {
			if m.match(rec) {
				matches = append(matches, rec)
			}
		}
		if len(matches) == 0 {
			continue
		}
		result.Results = append(result.Results, DatabaseMatches{
			Database: db.Name,
			Source:   SourceLocal,
			Matches:  matches,
		})
		result.Total += len(matches)
	}
	return result
}

type remoteAnswer struct {
	records []Record
	err     error
}

// Lookup searches every database loaded in sess and, concurrently, the
// remote collaborator. Remote failures are swallowed unless there are no
// local matches either, in which case ErrSearchFailed is returned.
func (s *Service) Lookup(ctx context.Context, sess *Session, query string) (*LookupResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	dbs := sess.Databases()
	if len(dbs) == 0 {
		return nil, ErrNoDatabases
	}

	start := s.now()
	logger := logging.WithFields(ctx, "databases", len(dbs))

	var remoteCh chan remoteAnswer
	if s.opts.Remote != nil {
		remoteCh = make(chan remoteAnswer, 1)
		go func() {
			rctx := ctx
			if s.opts.RemoteTimeout > 0 {
				var cancel context.CancelFunc
				rctx, cancel = context.WithTimeout(ctx, s.opts.RemoteTimeout)
				defer cancel()
			}

			recs, err := s.opts.Remote.Search(rctx, query)
			remoteCh <- remoteAnswer{records: recs, err: err}
		}()
	}

	result := SearchDatabases(dbs, query)

	if remoteCh != nil {
		ans := <-remoteCh
		switch {
		case ans.err != nil:
			s.metrics.remoteFailures.Inc()
			logger.Warn("remote lookup failed", "error", ans.err)
			if result.Empty() {
				s.metrics.lookupDone("failed", time.Since(start))
				return nil, ErrSearchFailed
			}
			result.RemoteErr = ans.err
		case len(ans.records) > 0:
			result.Results = append(result.Results, DatabaseMatches{
				Database: OnlineDatabaseName,
				Source:   SourceOnline,
				Matches:  ans.records,
			})
			result.Total += len(ans.records)
		}
	}

	outcome := "hit"
	if result.Empty() {
		outcome = "miss"
	}
	s.metrics.lookupDone(outcome, time.Since(start))
	logger.Info("lookup completed",
		"outcome", outcome,
		"matches", result.Total,
		"groups", len(result.Results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

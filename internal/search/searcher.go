package search

import (
	"context"
	"sync"

	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Backend executes one search request. *remote.Client satisfies it.
type Backend interface {
	Search(ctx context.Context, req remote.SearchRequest) ([]remote.SearchResult, error)
}

// Outcome is the settled result of one query.
type Outcome struct {
	Query     Query
	Results   []Result
	Truncated bool
	Err       error
}

// Status classifies a settled outcome.
func (o Outcome) Status() Status {
	switch {
	case errors.Is(o.Err, ErrInvalidPattern):
		return StatusInvalidPattern
	case o.Err != nil:
		return StatusError
	case len(o.Results) == 0:
		return StatusNoResults
	default:
		return StatusDone
	}
}

// Searcher runs queries against a Backend. Starting a query cancels the one
// in flight, and a superseded query never reports back.
type Searcher struct {
	backend    Backend
	maxResults int
	log        zerolog.Logger

	cancelMu sync.Mutex
	cancel   context.CancelFunc
	token    int
}

// NewSearcher creates a searcher. maxResults <= 0 uses MaxResults.
func NewSearcher(backend Backend, maxResults int, log zerolog.Logger) *Searcher {
	if maxResults <= 0 {
		maxResults = MaxResults
	}
	return &Searcher{
		backend:    backend,
		maxResults: maxResults,
		log:        log.With().Str("component", "search").Logger(),
	}
}

// MaxResults returns the configured cap.
func (s *Searcher) MaxResults() int {
	return s.maxResults
}

// SearchAsync runs q in a goroutine and invokes callback once with the
// outcome, unless the query is superseded or canceled first.
func (s *Searcher) SearchAsync(q Query, callback func(Outcome)) {
	s.cancelOngoingSearch()

	ctx, cancel := context.WithCancel(context.Background())
	token := s.setCancel(cancel)

	go func() {
		defer s.clearCancel(token)
		defer cancel()

		out := s.run(ctx, q)
		if remote.IsCanceled(out.Err) || !s.isTokenCurrent(token) {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		callback(out)
	}()
}

// Search runs q synchronously. A canceled search returns an Outcome whose Err
// satisfies remote.IsCanceled.
func (s *Searcher) Search(ctx context.Context, q Query) Outcome {
	s.cancelOngoingSearch()

	ctx, cancel := context.WithCancel(ctx)
	token := s.setCancel(cancel)
	defer s.clearCancel(token)
	defer cancel()

	return s.run(ctx, q)
}

// Cancel aborts the search in flight, if any.
func (s *Searcher) Cancel() {
	s.cancelOngoingSearch()
}

func (s *Searcher) run(ctx context.Context, q Query) Outcome {
	out := Outcome{Query: q}
	if err := q.Validate(); err != nil {
		out.Err = err
		return out
	}

	results, err := s.backend.Search(ctx, q.Request(s.maxResults))
	if err != nil {
		if !remote.IsCanceled(err) {
			s.log.Debug().Err(err).Str("query", q.Text).Msg("search failed")
		}
		out.Err = err
		return out
	}

	out.Results = make([]Result, 0, min(len(results), s.maxResults))
	for _, r := range results {
		if !q.accepts(r) {
			continue
		}
		if len(out.Results) == s.maxResults {
			out.Truncated = true
			break
		}
		out.Results = append(out.Results, r)
	}
	return out
}

func (s *Searcher) cancelOngoingSearch() {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.token++
	}
}

func (s *Searcher) setCancel(cancel context.CancelFunc) int {
	s.cancelMu.Lock()
	s.token++
	token := s.token
	s.cancel = cancel
	s.cancelMu.Unlock()
	return token
}

func (s *Searcher) clearCancel(token int) {
	s.cancelMu.Lock()
	if s.token == token {
		s.cancel = nil
	}
	s.cancelMu.Unlock()
}

func (s *Searcher) isTokenCurrent(token int) bool {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	return s.token == token
}

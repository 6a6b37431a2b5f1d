package metadata

import (
	"context"
	"sync"

	"github.com/dcamenisch/tvbuddy/internal/services/tmdb"
	"github.com/sirupsen/logrus"
)

// SearchSession is one logical search interaction. Every query change bumps
// a generation counter; results arriving for an older generation are
// discarded on the way in, so an abandoned in-flight fetch can complete
// harmlessly without poisoning the session state.
type SearchSession struct {
	cache *Cache

	mu         sync.Mutex
	generation int
	query      string
	page       int
	totalPages int
	seen       map[int]struct{}
	titles     []tmdb.Title
}

// NewSearchSession creates an empty search session.
func (c *Cache) NewSearchSession() *SearchSession {
	return &SearchSession{
		cache: c,
		seen:  make(map[int]struct{}),
	}
}

// SetQuery resets the session to a new query and loads its first page.
// An empty query just clears the session.
func (s *SearchSession) SetQuery(ctx context.Context, query string) []tmdb.Title {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.query = query
	s.page = 0
	s.totalPages = 0
	s.seen = make(map[int]struct{})
	s.titles = nil
	s.mu.Unlock()

	if query == "" {
		return nil
	}
	return s.advance(ctx, gen, query, 1)
}

// NextPage loads one more page of results for the current query.
func (s *SearchSession) NextPage(ctx context.Context) []tmdb.Title {
	s.mu.Lock()
	gen := s.generation
	query := s.query
	next := s.page + 1
	if query == "" || (s.page > 0 && s.totalPages > 0 && next > s.totalPages) {
		out := s.snapshotLocked()
		s.mu.Unlock()
		return out
	}
	s.mu.Unlock()
	return s.advance(ctx, gen, query, next)
}

// Results returns the accumulated results without fetching.
func (s *SearchSession) Results() []tmdb.Title {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SearchSession) snapshotLocked() []tmdb.Title {
	out := make([]tmdb.Title, len(s.titles))
	copy(out, s.titles)
	return out
}

func (s *SearchSession) advance(ctx context.Context, gen int, query string, pageNumber int) []tmdb.Title {
	page, err := s.cache.catalog.Search(ctx, query, pageNumber)
	if err != nil {
		s.cache.reportFetchFailure(err, logrus.Fields{"kind": "search", "query": query, "page": pageNumber})
		return s.Results()
	}

	// Multi search mixes in people; only titles are resolved here.
	titles := make([]tmdb.Title, 0, len(page.Results))
	for _, t := range page.Results {
		if t.MediaType == "person" {
			continue
		}
		titles = append(titles, t)
	}
	resolved := s.cache.resolveTitles(ctx, "", titles)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || pageNumber != s.page+1 {
		// The caller moved on while this fetch was in flight.
		return s.snapshotLocked()
	}
	s.page = pageNumber
	s.totalPages = page.TotalPages
	for _, t := range resolved {
		if _, dup := s.seen[t.ID]; dup {
			continue
		}
		s.seen[t.ID] = struct{}{}
		s.titles = append(s.titles, t)
	}
	return s.snapshotLocked()
}

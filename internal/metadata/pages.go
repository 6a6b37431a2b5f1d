package metadata

import (
	"context"
	"sync"

	"github.com/dcamenisch/tvbuddy/internal/services/tmdb"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// PagedList accumulates one remote paginated list (discover or trending).
// It tracks the highest page fetched so far; repeated reads of the current
// state never refetch, and NextPage advances by exactly one page. Results
// are de-duplicated by id before appending.
type PagedList struct {
	cache *Cache
	kind  tmdb.Kind
	fetch func(ctx context.Context, kind tmdb.Kind, page int) (*tmdb.Page, error)

	lock       sync.Mutex
	page       int // highest page fetched, 0 before the first fetch
	totalPages int
	seen       map[int]struct{}
	titles     []tmdb.Title
}

func newPagedList(c *Cache, kind tmdb.Kind, fetch func(ctx context.Context, kind tmdb.Kind, page int) (*tmdb.Page, error)) *PagedList {
	return &PagedList{
		cache: c,
		kind:  kind,
		fetch: fetch,
		seen:  make(map[int]struct{}),
	}
}

// Current returns the accumulated list, fetching the first page once if
// nothing has been loaded yet. Calling it repeatedly performs no further
// network calls.
func (l *PagedList) Current(ctx context.Context) []tmdb.Title {
	l.lock.Lock()
	if l.page > 0 {
		out := l.snapshotLocked()
		l.lock.Unlock()
		return out
	}
	l.lock.Unlock()
	return l.advance(ctx, 1)
}

// NextPage fetches the next unseen page and appends its titles. At the end
// of the remote list it returns the accumulated titles unchanged.
func (l *PagedList) NextPage(ctx context.Context) []tmdb.Title {
	l.lock.Lock()
	next := l.page + 1
	if l.page > 0 && l.totalPages > 0 && next > l.totalPages {
		out := l.snapshotLocked()
		l.lock.Unlock()
		return out
	}
	l.lock.Unlock()
	return l.advance(ctx, next)
}

// Titles returns the accumulated list without any fetching.
func (l *PagedList) Titles() []tmdb.Title {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.snapshotLocked()
}

func (l *PagedList) snapshotLocked() []tmdb.Title {
	out := make([]tmdb.Title, len(l.titles))
	copy(out, l.titles)
	return out
}

// advance fetches pageNumber, resolves the page's titles concurrently and
// appends the new ones. If another caller advanced the list in the meantime
// the fetched page is discarded rather than stored against stale state.
func (l *PagedList) advance(ctx context.Context, pageNumber int) []tmdb.Title {
	page, err := l.fetch(ctx, l.kind, pageNumber)
	if err != nil {
		l.cache.reportFetchFailure(err, logrus.Fields{"kind": "page", "media": l.kind, "page": pageNumber})
		return l.Titles()
	}

	resolved := l.cache.resolveTitles(ctx, l.kind, page.Results)

	l.lock.Lock()
	defer l.lock.Unlock()
	if pageNumber != l.page+1 {
		return l.snapshotLocked()
	}
	l.page = pageNumber
	l.totalPages = page.TotalPages
	for _, t := range resolved {
		if _, dup := l.seen[t.ID]; dup {
			continue
		}
		l.seen[t.ID] = struct{}{}
		l.titles = append(l.titles, t)
	}
	return l.snapshotLocked()
}

// resolveTitles fans out one detail fetch per title and fans back in once
// every fetch has completed or failed. A failed fetch yields an absent
// element, never an aborted batch. An empty kind means mixed results and the
// per-title media type decides the lookup.
func (c *Cache) resolveTitles(ctx context.Context, kind tmdb.Kind, titles []tmdb.Title) []tmdb.Title {
	resolved := make([]*tmdb.Title, len(titles))

	var wg conc.WaitGroup
	for i := range titles {
		i := i
		t := titles[i]
		k := kind
		if k == "" {
			k = t.Kind()
		}
		wg.Go(func() {
			switch k {
			case tmdb.KindMovie:
				resolved[i] = c.Movie(ctx, t.ID)
			default:
				resolved[i] = c.Series(ctx, t.ID)
			}
		})
	}
	wg.Wait()

	out := make([]tmdb.Title, 0, len(titles))
	for _, t := range resolved {
		if t != nil {
			out = append(out, *t)
		}
	}
	return out
}

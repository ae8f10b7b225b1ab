package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	ristretto "github.com/dgraph-io/ristretto/v2"

	"github.com/on-the-ground/react_ive_go/effect"
	"github.com/on-the-ground/react_ive_go/store"
)

// searchTag identifies the in-flight search. Starting a new search
// under the same tag cancels the previous one.
type searchTag struct{}

type searchState struct {
	Query   string
	Hits    []string
	Pending bool
}

// searchAction is the closed set of actions the demo reducer handles.
type searchAction interface{ searchAction() }

type queryChanged struct{ Query string }

func (queryChanged) searchAction() {}

type resultsArrived struct {
	Query string
	Hits  []string
}

func (resultsArrived) searchAction() {}

func newReducer(s *searcher) store.Reducer[searchState, searchAction] {
	return func(st searchState, a searchAction) (searchState, effect.Effect[searchAction]) {
		switch a := a.(type) {
		case queryChanged:
			st.Query = a.Query
			if a.Query == "" {
				st.Hits = nil
				st.Pending = false
				return st, effect.Cancel[searchAction](searchTag{})
			}
			st.Pending = true
			return st, s.effect(a.Query).Cancellable(searchTag{}, true)
		case resultsArrived:
			// Results for anything but the current query are stale.
			if a.Query == st.Query {
				st.Hits = a.Hits
				st.Pending = false
			}
			return st, effect.None[searchAction]()
		default:
			return st, effect.None[searchAction]()
		}
	}
}

const hitCost = 1 << 10

// searcher stands in for a slow backend: it waits out the debounce
// window, then scans the corpus for case-insensitive substring
// matches. Results are cached per query, so a query typed again
// resolves instantly instead of waiting out the debounce once more.
type searcher struct {
	cfg   Config
	cache *ristretto.Cache[string, []string]
}

func newSearcher(cfg Config) (*searcher, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []string]{
		NumCounters: int64(cfg.CacheEntries) * 10,
		MaxCost:     int64(cfg.CacheEntries) * hitCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("build result cache: %w", err)
	}
	return &searcher{cfg: cfg, cache: cache}, nil
}

func (s *searcher) close() {
	s.cache.Close()
}

func (s *searcher) effect(query string) effect.Effect[searchAction] {
	return effect.Future(func(ctx context.Context, resolve func(searchAction, error)) {
		if hits, ok := s.cache.Get(query); ok {
			resolve(resultsArrived{Query: query, Hits: hits}, nil)
			return
		}
		select {
		case <-time.After(s.cfg.debounce()):
		case <-ctx.Done():
			return
		}
		hits := s.scan(query)
		s.cache.Set(query, hits, hitCost)
		resolve(resultsArrived{Query: query, Hits: hits}, nil)
	})
}

func (s *searcher) scan(query string) []string {
	needle := strings.ToLower(query)
	hits := make([]string, 0, s.cfg.MaxResults)
	for _, entry := range s.cfg.Corpus {
		if strings.Contains(strings.ToLower(entry), needle) {
			hits = append(hits, entry)
			if len(hits) == s.cfg.MaxResults {
				break
			}
		}
	}
	return hits
}

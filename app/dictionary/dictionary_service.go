package dictionary

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/mahesh-hegde/hsrdict/app/common"
)

type DictionaryService struct {
	store Store
	// nil when caching is disabled
	cache *cache.Cache
}

// NewDictionaryService returns a service searching store. Results are
// cached for cacheTTL; a zero TTL disables the cache.
func NewDictionaryService(store Store, cacheTTL time.Duration) *DictionaryService {
	s := &DictionaryService{store: store}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

func searchCacheKey(p SearchParams) string {
	return fmt.Sprintf("%d:%d:%s", p.Page, p.PageSize, p.Term)
}

// Search returns the page p.Page of vocabularies with a translation
// containing p.Term, each expanded to all of its translations.
func (s *DictionaryService) Search(ctx context.Context, p SearchParams) (SearchResults, error) {
	if p.PageSize < 1 {
		return SearchResults{}, common.NewUserVisibleError(http.StatusBadRequest, fmt.Sprintf("invalid page size %d", p.PageSize))
	}
	if p.Page < 1 {
		p.Page = 1
	}

	res := SearchResults{Page: p.Page, PageSize: p.PageSize, Results: []NestedDictionaryItem{}}
	// stored translations are valid UTF-8 and never contain an invalid term
	if p.Term == "" || !utf8.ValidString(p.Term) {
		return res, nil
	}

	key := searchCacheKey(p)
	if s.cache != nil {
		if cached, found := s.cache.Get(key); found {
			return cached.(SearchResults), nil
		}
	}

	candidates, err := s.store.FindCandidates(ctx, p.Term, (p.Page-1)*p.PageSize, p.PageSize)
	if err != nil {
		return SearchResults{}, fmt.Errorf("failed to find candidates for %q: %w", p.Term, err)
	}
	res.TotalPages = (candidates.Total + p.PageSize - 1) / p.PageSize

	nested := make([]NestedDictionaryItem, len(candidates.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.PageSize)
	for i, target := range candidates.Items {
		g.Go(func() error {
			siblings, err := s.store.GetByVocabularyID(gctx, target.VocabularyID)
			if err != nil {
				return fmt.Errorf("failed to load vocabulary %d: %w", target.VocabularyID, err)
			}
			nested[i] = nestItems(target, siblings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SearchResults{}, err
	}
	res.Results = nested

	slog.Debug("search done", "term", p.Term, "page", p.Page, "total_pages", res.TotalPages, "results", len(nested))
	if s.cache != nil {
		s.cache.SetDefault(key, res)
	}
	return res, nil
}

// FlushCache drops all cached search results. It is called after the store
// contents change.
func (s *DictionaryService) FlushCache() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

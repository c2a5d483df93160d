package dictionary

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahesh-hegde/hsrdict/app/common"
)

// spyStore wraps a Store and records calls made to it.
type spyStore struct {
	Store
	mu             sync.Mutex
	findCalls      int
	getCalls       int
	batchSizes     []int
	findCandidates func(term string, offset, limit int) (CandidatePage, error)
}

func (s *spyStore) FindCandidates(ctx context.Context, term string, offset, limit int) (CandidatePage, error) {
	s.mu.Lock()
	s.findCalls++
	s.mu.Unlock()
	if s.findCandidates != nil {
		return s.findCandidates(term, offset, limit)
	}
	return s.Store.FindCandidates(ctx, term, offset, limit)
}

func (s *spyStore) GetByVocabularyID(ctx context.Context, vocabularyID int64) ([]DictionaryItem, error) {
	s.mu.Lock()
	s.getCalls++
	s.mu.Unlock()
	return s.Store.GetByVocabularyID(ctx, vocabularyID)
}

func (s *spyStore) InsertBatch(ctx context.Context, items []DictionaryItem) error {
	s.mu.Lock()
	s.batchSizes = append(s.batchSizes, len(items))
	s.mu.Unlock()
	return s.Store.InsertBatch(ctx, items)
}

func TestDictionaryService_Search(t *testing.T) {
	for _, ts := range testStores {
		t.Run(ts.name, func(t *testing.T) {
			store := ts.open(t)
			insertItems(t, store,
				item(42, common.En, "hello"), item(42, common.Fr, "bonjour"),
				item(43, common.En, "good day"), item(43, common.Fr, "bonne journée"),
				item(44, common.En, "goodbye"),
			)
			svc := NewDictionaryService(store, 0)

			res, err := svc.Search(context.Background(), SearchParams{Term: "bonjour", Page: 1, PageSize: 10})
			require.NoError(t, err)
			assert.Equal(t, SearchResults{
				TotalPages: 1,
				Page:       1,
				PageSize:   10,
				Results: []NestedDictionaryItem{{
					VocabularyID:   42,
					Target:         "bonjour",
					TargetLanguage: common.Fr,
					Translations:   map[common.Language]string{common.En: "hello", common.Fr: "bonjour"},
				}},
			}, res)

			res, err = svc.Search(context.Background(), SearchParams{Term: "good", PageSize: 10})
			require.NoError(t, err)
			assert.Equal(t, 1, res.Page)
			require.Len(t, res.Results, 2)
			assert.Equal(t, "goodbye", res.Results[0].Target)
			assert.Equal(t, "good day", res.Results[1].Target)
			assert.Equal(t, "bonne journée", res.Results[1].Translations[common.Fr])
		})
	}
}

func TestDictionaryService_SearchPagination(t *testing.T) {
	store := newSQLiteStore(t)
	var items []DictionaryItem
	for i := int64(1); i <= 25; i++ {
		items = append(items, item(i, common.En, fmt.Sprintf("word%02d", i)))
	}
	insertItems(t, store, items...)
	svc := NewDictionaryService(store, 0)

	testCases := []struct {
		name       string
		page       int
		count      int
		first      int64
		totalPages int
	}{
		{"First page", 1, 10, 1, 3},
		{"Second page", 2, 10, 11, 3},
		{"Last page", 3, 5, 21, 3},
		{"Past the end", 4, 0, 0, 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.Search(context.Background(), SearchParams{Term: "word", Page: tc.page, PageSize: 10})
			require.NoError(t, err)
			assert.Equal(t, tc.totalPages, res.TotalPages)
			assert.Equal(t, tc.page, res.Page)
			assert.Len(t, res.Results, tc.count)
			assert.NotNil(t, res.Results)
			if tc.count > 0 {
				assert.Equal(t, tc.first, res.Results[0].VocabularyID)
			}
		})
	}
}

func TestDictionaryService_SearchEmptyTerm(t *testing.T) {
	spy := &spyStore{Store: newSQLiteStore(t)}
	svc := NewDictionaryService(spy, time.Minute)

	res, err := svc.Search(context.Background(), SearchParams{Term: "", Page: 0, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, SearchResults{Page: 1, PageSize: 20, Results: []NestedDictionaryItem{}}, res)
	assert.Zero(t, spy.findCalls)
	assert.Zero(t, spy.getCalls)
}

func TestDictionaryService_SearchInvalidUTF8Term(t *testing.T) {
	spy := &spyStore{Store: newBleveStore(t)}
	insertItems(t, spy.Store, item(1, common.En, "ab"))
	svc := NewDictionaryService(spy, 0)

	for _, term := range []string{"a\xffb", "\xe7"} {
		res, err := svc.Search(context.Background(), SearchParams{Term: term, Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Empty(t, res.Results)
		assert.Zero(t, res.TotalPages)
	}
	assert.Zero(t, spy.findCalls)
}

func TestDictionaryService_SearchInvalidPageSize(t *testing.T) {
	spy := &spyStore{Store: newSQLiteStore(t)}
	svc := NewDictionaryService(spy, 0)

	for _, size := range []int{0, -1} {
		_, err := svc.Search(context.Background(), SearchParams{Term: "a", Page: 1, PageSize: size})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, common.HTTPStatus(err))
	}
	assert.Zero(t, spy.findCalls)
}

func TestDictionaryService_SearchStoreFailure(t *testing.T) {
	spy := &spyStore{
		Store: newSQLiteStore(t),
		findCandidates: func(string, int, int) (CandidatePage, error) {
			return CandidatePage{}, fmt.Errorf("%w: connection refused", common.ErrTransientIO)
		},
	}
	svc := NewDictionaryService(spy, time.Minute)

	_, err := svc.Search(context.Background(), SearchParams{Term: "a", Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, common.ErrTransientIO)
	assert.Equal(t, http.StatusServiceUnavailable, common.HTTPStatus(err))

	// failures are not cached
	_, err = svc.Search(context.Background(), SearchParams{Term: "a", Page: 1, PageSize: 10})
	assert.Error(t, err)
	assert.Equal(t, 2, spy.findCalls)
}

func TestDictionaryService_SearchCache(t *testing.T) {
	spy := &spyStore{Store: newSQLiteStore(t)}
	insertItems(t, spy.Store, item(1, common.En, "star rail"), item(1, common.De, "Sternenschienen"))
	svc := NewDictionaryService(spy, time.Minute)
	ctx := context.Background()
	params := SearchParams{Term: "rail", Page: 1, PageSize: 5}

	first, err := svc.Search(ctx, params)
	require.NoError(t, err)
	second, err := svc.Search(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, spy.findCalls)
	assert.Equal(t, 1, spy.getCalls)

	// a different page size is a different query
	_, err = svc.Search(ctx, SearchParams{Term: "rail", Page: 1, PageSize: 6})
	require.NoError(t, err)
	assert.Equal(t, 2, spy.findCalls)

	svc.FlushCache()
	_, err = svc.Search(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 3, spy.findCalls)
}

func TestInsertBatched(t *testing.T) {
	spy := &spyStore{Store: newSQLiteStore(t)}
	items := make([]DictionaryItem, 1700)
	for i := range items {
		items[i] = item(int64(i), common.En, fmt.Sprintf("item %d", i))
	}

	inserted, err := InsertBatched(context.Background(), spy, items, DefaultBatchSize)
	require.NoError(t, err)
	assert.Equal(t, 1700, inserted)
	assert.Equal(t, []int{800, 800, 100}, spy.batchSizes)
	assert.Equal(t, 1700, countRows(t, spy.Store))

	_, err = InsertBatched(context.Background(), spy, items, 0)
	assert.Error(t, err)

	inserted, err = InsertBatched(context.Background(), spy, nil, DefaultBatchSize)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Len(t, spy.batchSizes, 3)
}

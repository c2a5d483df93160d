package dictionary

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/mahesh-hegde/hsrdict/app/common"
)

const (
	bleveDocType = "dictionary_item"
	// hits fetched per request when walking a result set
	bleveScanSize = 5000
)

var bleveItemFields = []string{"id", "vocabulary_id", "language", "translation"}

type DictionaryItemInIndex struct {
	ID           int64  `json:"id"`
	VocabularyID int64  `json:"vocabulary_id"`
	Language     string `json:"language"`
	Translation  string `json:"translation"`
}

// Type implements mapping.Classifier.
func (d *DictionaryItemInIndex) Type() string {
	return bleveDocType
}

var _ mapping.Classifier = &DictionaryItemInIndex{}

// NewBleveIndexMapping maps dictionary items with the translation as a
// single keyword term, so substring search is a regexp over whole
// translations and stays case-sensitive.
func NewBleveIndexMapping() mapping.IndexMapping {
	indexMapping := mapping.NewIndexMapping()

	itemMapping := mapping.NewDocumentMapping()
	itemMapping.Dynamic = false
	itemMapping.AddFieldMappingsAt("id", mapping.NewNumericFieldMapping())
	itemMapping.AddFieldMappingsAt("vocabulary_id", mapping.NewNumericFieldMapping())
	itemMapping.AddFieldMappingsAt("language", mapping.NewKeywordFieldMapping())
	itemMapping.AddFieldMappingsAt("translation", mapping.NewKeywordFieldMapping())

	indexMapping.AddDocumentMapping(bleveDocType, itemMapping)
	indexMapping.TypeField = "_type"
	return indexMapping
}

// BleveDictStore keeps one document per (vocabulary, language), so
// re-inserting a pair replaces the previous row.
type BleveDictStore struct {
	idx    bleve.Index
	lastID atomic.Int64
}

func NewBleveDictStore(idx bleve.Index) *BleveDictStore {
	return &BleveDictStore{idx: idx}
}

var _ Store = &BleveDictStore{}

func bleveDocID(vocabularyID int64, lang common.Language) string {
	return fmt.Sprintf("%d:%s", vocabularyID, lang)
}

// Init seeds the id counter from the largest stored id.
func (s *BleveDictStore) Init(ctx context.Context) error {
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 1, 0, false)
	req.Fields = []string{"id"}
	req.SortBy([]string{"-id"})
	res, err := s.idx.SearchInContext(ctx, req)
	if err != nil {
		return storeError(err, "find last item id")
	}
	if len(res.Hits) > 0 {
		id, ok := res.Hits[0].Fields["id"].(float64)
		if !ok {
			return fmt.Errorf("%w: index document %q has no id", common.ErrStore, res.Hits[0].ID)
		}
		s.lastID.Store(int64(id))
	}
	return nil
}

func (s *BleveDictStore) InsertBatch(ctx context.Context, items []DictionaryItem) error {
	if len(items) == 0 {
		return nil
	}
	b := s.idx.NewBatch()
	for _, it := range items {
		doc := &DictionaryItemInIndex{
			ID:           s.lastID.Add(1),
			VocabularyID: it.VocabularyID,
			Language:     string(it.Language),
			Translation:  it.Translation,
		}
		if err := b.Index(bleveDocID(it.VocabularyID, it.Language), doc); err != nil {
			return storeError(err, "index vocabulary %d", it.VocabularyID)
		}
	}
	if err := s.idx.Batch(b); err != nil {
		return storeError(err, "insert %d dictionary items", len(items))
	}
	return nil
}

func (s *BleveDictStore) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), bleveScanSize, 0, false)
		res, err := s.idx.SearchInContext(ctx, req)
		if err != nil {
			return deleted, storeError(err, "list dictionary items")
		}
		if len(res.Hits) == 0 {
			return deleted, nil
		}
		b := s.idx.NewBatch()
		for _, hit := range res.Hits {
			b.Delete(hit.ID)
		}
		if err := s.idx.Batch(b); err != nil {
			return deleted, storeError(err, "delete dictionary items")
		}
		deleted += int64(len(res.Hits))
	}
}

// DeleteVocabularies applies all deletions as one index batch.
func (s *BleveDictStore) DeleteVocabularies(ctx context.Context, vocabularyIDs []int64) (int64, error) {
	if len(vocabularyIDs) == 0 {
		return 0, nil
	}
	langs := common.AllLanguages()
	ids := make([]string, 0, len(vocabularyIDs)*len(langs))
	for _, v := range vocabularyIDs {
		for _, l := range langs {
			ids = append(ids, bleveDocID(v, l))
		}
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDocIDQuery(ids), len(ids), 0, false)
	res, err := s.idx.SearchInContext(ctx, req)
	if err != nil {
		return 0, storeError(err, "find rows of %d vocabularies", len(vocabularyIDs))
	}
	b := s.idx.NewBatch()
	for _, hit := range res.Hits {
		b.Delete(hit.ID)
	}
	if err := s.idx.Batch(b); err != nil {
		return 0, storeError(err, "delete %d vocabularies", len(vocabularyIDs))
	}
	return int64(len(res.Hits)), nil
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// betterMatch orders candidate rows of one vocabulary the way the SQL store
// ranks them: shortest translation, then language, then id.
func betterMatch(a, b DictionaryItem) bool {
	return cmp.Or(
		cmp.Compare(runeLen(a.Translation), runeLen(b.Translation)),
		strings.Compare(string(a.Language), string(b.Language)),
		cmp.Compare(a.ID, b.ID),
	) < 0
}

func (s *BleveDictStore) FindCandidates(ctx context.Context, term string, offset, limit int) (CandidatePage, error) {
	// indexed translations are valid UTF-8, so they cannot contain such a term
	if !utf8.ValidString(term) {
		return CandidatePage{}, nil
	}
	q := bleve.NewRegexpQuery("(?s).*" + regexp.QuoteMeta(term) + ".*")
	q.SetField("translation")

	best := make(map[int64]DictionaryItem)
	err := s.scan(ctx, q, func(it DictionaryItem) error {
		if cur, ok := best[it.VocabularyID]; !ok || betterMatch(it, cur) {
			best[it.VocabularyID] = it
		}
		return nil
	})
	if err != nil {
		return CandidatePage{}, err
	}

	candidates := make([]DictionaryItem, 0, len(best))
	for _, it := range best {
		candidates = append(candidates, it)
	}
	slices.SortFunc(candidates, func(a, b DictionaryItem) int {
		return cmp.Or(
			cmp.Compare(runeLen(a.Translation), runeLen(b.Translation)),
			cmp.Compare(a.VocabularyID, b.VocabularyID),
		)
	})

	page := CandidatePage{Total: len(candidates)}
	if offset < len(candidates) && limit > 0 {
		page.Items = candidates[offset:min(offset+limit, len(candidates))]
	}
	return page, nil
}

func (s *BleveDictStore) GetByVocabularyID(ctx context.Context, vocabularyID int64) ([]DictionaryItem, error) {
	v := float64(vocabularyID)
	inclusive := true
	q := bleve.NewNumericRangeInclusiveQuery(&v, &v, &inclusive, &inclusive)
	q.SetField("vocabulary_id")

	var items []DictionaryItem
	err := s.scan(ctx, q, func(it DictionaryItem) error {
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *BleveDictStore) ScanVocabularies(ctx context.Context, fn func(vocabularyID int64, items []DictionaryItem) error) error {
	var group []DictionaryItem
	err := s.scan(ctx, bleve.NewMatchAllQuery(), func(it DictionaryItem) error {
		if len(group) > 0 && group[0].VocabularyID != it.VocabularyID {
			if err := fn(group[0].VocabularyID, group); err != nil {
				return err
			}
			group = nil
		}
		group = append(group, it)
		return nil
	})
	if err != nil {
		return err
	}
	if len(group) > 0 {
		return fn(group[0].VocabularyID, group)
	}
	return nil
}

func (s *BleveDictStore) Close() error {
	return s.idx.Close()
}

// scan walks every hit of q ordered by vocabulary id and language, paging
// with search_after.
func (s *BleveDictStore) scan(ctx context.Context, q query.Query, fn func(DictionaryItem) error) error {
	var after []string
	for {
		req := bleve.NewSearchRequestOptions(q, bleveScanSize, 0, false)
		req.Fields = bleveItemFields
		req.SortBy([]string{"vocabulary_id", "language", "_id"})
		if after != nil {
			req.SearchAfter = after
		}
		res, err := s.idx.SearchInContext(ctx, req)
		if err != nil {
			return storeError(err, "search dictionary index")
		}
		for _, hit := range res.Hits {
			it, err := hitToItem(hit)
			if err != nil {
				return err
			}
			if err := fn(it); err != nil {
				return err
			}
		}
		if len(res.Hits) < bleveScanSize {
			return nil
		}
		after = res.Hits[len(res.Hits)-1].Sort
	}
}

func hitToItem(hit *search.DocumentMatch) (DictionaryItem, error) {
	id, ok1 := hit.Fields["id"].(float64)
	vocabularyID, ok2 := hit.Fields["vocabulary_id"].(float64)
	lang, ok3 := hit.Fields["language"].(string)
	translation, ok4 := hit.Fields["translation"].(string)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return DictionaryItem{}, fmt.Errorf("%w: malformed index document %q", common.ErrStore, hit.ID)
	}
	return DictionaryItem{
		ID:           int64(id),
		VocabularyID: int64(vocabularyID),
		Language:     common.Language(lang),
		Translation:  translation,
	}, nil
}

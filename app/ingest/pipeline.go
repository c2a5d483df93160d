package ingest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mahesh-hegde/hsrdict/app/common"
	"github.com/mahesh-hegde/hsrdict/app/dictionary"
)

type RefreshReport struct {
	WipedRows             int64
	Inserted              int
	PerLanguage           map[common.Language]int
	DuplicateVocabularies int
	DeletedRows           int64
	Duration              time.Duration
}

// Pipeline replaces the store contents with a fresh copy of every catalog
// language and de-duplicates the result.
type Pipeline struct {
	store     dictionary.Store
	catalog   *common.Catalog
	source    TextMapSource
	batchSize int
}

func NewPipeline(store dictionary.Store, catalog *common.Catalog, source TextMapSource, batchSize int) (*Pipeline, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("invalid batch size %d", batchSize)
	}
	if catalog == nil || catalog.Len() == 0 {
		return nil, errors.New("no languages to refresh")
	}
	return &Pipeline{store: store, catalog: catalog, source: source, batchSize: batchSize}, nil
}

// Refresh wipes the store, loads all languages concurrently and removes
// duplicated vocabularies. Once started it runs to completion even if ctx is
// cancelled. On failure the store may be left partially loaded.
func (p *Pipeline) Refresh(ctx context.Context) (RefreshReport, error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	langs := p.catalog.Languages()

	slog.Warn("wiping dictionary for refresh, searches see partial data until it completes", "languages", len(langs))
	wiped, err := p.store.DeleteAll(ctx)
	if err != nil {
		return RefreshReport{}, fmt.Errorf("failed to wipe dictionary: %w", err)
	}

	counts := make([]int, len(langs))
	var g errgroup.Group
	g.SetLimit(len(langs))
	for i, lang := range langs {
		g.Go(func() error {
			n, err := p.loadLanguage(ctx, lang)
			if err != nil {
				return fmt.Errorf("failed to load language %s: %w", lang, err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RefreshReport{}, err
	}

	dedup, err := dictionary.Deduplicate(ctx, p.store)
	if err != nil {
		return RefreshReport{}, fmt.Errorf("failed to de-duplicate dictionary: %w", err)
	}

	report := RefreshReport{
		WipedRows:             wiped,
		PerLanguage:           make(map[common.Language]int, len(langs)),
		DuplicateVocabularies: dedup.DuplicateVocabularies,
		DeletedRows:           dedup.DeletedRows,
		Duration:              time.Since(start),
	}
	for i, lang := range langs {
		report.PerLanguage[lang] = counts[i]
		report.Inserted += counts[i]
	}
	slog.Info("dictionary refreshed", "inserted", report.Inserted, "duplicates", report.DuplicateVocabularies, "duration", report.Duration)
	return report, nil
}

func (p *Pipeline) loadLanguage(ctx context.Context, lang common.Language) (int, error) {
	url, ok := p.catalog.SourceURL(lang)
	if !ok {
		return 0, fmt.Errorf("no source url for %s", lang)
	}
	textMap, err := p.source.FetchTextMap(ctx, url)
	if err != nil {
		return 0, err
	}
	items := textMapItems(lang, textMap)
	n, err := dictionary.InsertBatched(ctx, p.store, items, p.batchSize)
	if err != nil {
		return n, err
	}
	slog.Info("language loaded", "lang", lang, "items", n, "skipped", len(textMap)-len(items))
	return n, nil
}

// textMapItems converts a text map to items ordered by vocabulary id,
// dropping empty translations.
func textMapItems(lang common.Language, textMap map[int64]string) []dictionary.DictionaryItem {
	items := make([]dictionary.DictionaryItem, 0, len(textMap))
	for vocabularyID, translation := range textMap {
		if translation == "" {
			continue
		}
		items = append(items, dictionary.DictionaryItem{
			VocabularyID: vocabularyID,
			Language:     lang,
			Translation:  translation,
		})
	}
	slices.SortFunc(items, func(a, b dictionary.DictionaryItem) int {
		return cmp.Compare(a.VocabularyID, b.VocabularyID)
	})
	return items
}

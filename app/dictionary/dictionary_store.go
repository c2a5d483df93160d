package dictionary

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultBatchSize keeps a multi-row insert of three columns well under the
// bind parameter limits of every supported backend.
const DefaultBatchSize = 800

type Store interface {
	// Init prepares the backend (schema migrations, index mappings).
	Init(ctx context.Context) error

	// InsertBatch inserts all items in one statement. Callers keep batches
	// at most DefaultBatchSize long, see InsertBatched.
	InsertBatch(ctx context.Context, items []DictionaryItem) error

	// DeleteAll wipes every row and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)

	// DeleteVocabularies removes every row of the given vocabularies as one
	// atomic operation: either all of them go or none.
	DeleteVocabularies(ctx context.Context, vocabularyIDs []int64) (int64, error)

	// FindCandidates finds vocabularies having a translation that contains
	// term (case-sensitive), one representative row each, ordered by the
	// length of the matched translation and then by vocabulary id.
	FindCandidates(ctx context.Context, term string, offset, limit int) (CandidatePage, error)

	// GetByVocabularyID returns all rows of a vocabulary, ordered by language.
	GetByVocabularyID(ctx context.Context, vocabularyID int64) ([]DictionaryItem, error)

	// ScanVocabularies calls fn once per vocabulary in ascending id order,
	// with its rows ordered by language. fn must not call back into the store.
	ScanVocabularies(ctx context.Context, fn func(vocabularyID int64, items []DictionaryItem) error) error

	Close() error
}

// InsertBatched inserts items in consecutive batches of at most batchSize.
func InsertBatched(ctx context.Context, store Store, items []DictionaryItem, batchSize int) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("invalid batch size %d", batchSize)
	}
	inserted := 0
	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))
		if err := store.InsertBatch(ctx, items[start:end]); err != nil {
			return inserted, fmt.Errorf("failed to insert batch at offset %d: %w", start, err)
		}
		inserted += end - start
	}
	slog.Debug("inserted dictionary items", "count", inserted, "batches", (len(items)+batchSize-1)/batchSize)
	return inserted, nil
}

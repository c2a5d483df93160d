package dictionary

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

type DedupReport struct {
	// Vocabularies removed because another, smaller id had the same
	// translations in every language.
	DuplicateVocabularies int
	DeletedRows           int64
}

type signature [sha256.Size]byte

// vocabularySignature digests the language-sorted (language, translation)
// pairs of a vocabulary. Every field is length-prefixed so that distinct
// pair sequences cannot produce the same byte stream.
func vocabularySignature(items []DictionaryItem) signature {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b DictionaryItem) int {
		if c := strings.Compare(string(a.Language), string(b.Language)); c != 0 {
			return c
		}
		return strings.Compare(a.Translation, b.Translation)
	})

	h := sha256.New()
	var lenBuf [binary.MaxVarintLen64]byte
	write := func(s string) {
		n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
		h.Write(lenBuf[:n])
		h.Write([]byte(s))
	}
	for _, it := range sorted {
		write(string(it.Language))
		write(it.Translation)
	}

	var sig signature
	h.Sum(sig[:0])
	return sig
}

// Deduplicate collapses vocabularies whose complete translation sets are
// identical into the one with the smallest id, deleting the rest in a
// single store operation.
func Deduplicate(ctx context.Context, store Store) (DedupReport, error) {
	slog.Info("deleting duplicated vocabularies")

	kept := make(map[signature]int64)
	var duplicates []int64
	err := store.ScanVocabularies(ctx, func(vocabularyID int64, items []DictionaryItem) error {
		sig := vocabularySignature(items)
		prev, seen := kept[sig]
		switch {
		case !seen:
			kept[sig] = vocabularyID
		case vocabularyID < prev:
			duplicates = append(duplicates, prev)
			kept[sig] = vocabularyID
		default:
			duplicates = append(duplicates, vocabularyID)
		}
		return nil
	})
	if err != nil {
		return DedupReport{}, fmt.Errorf("failed to scan vocabularies: %w", err)
	}

	if len(duplicates) == 0 {
		slog.Info("no duplicated vocabularies found", "vocabularies", len(kept))
		return DedupReport{}, nil
	}

	slices.Sort(duplicates)
	deleted, err := store.DeleteVocabularies(ctx, duplicates)
	if err != nil {
		return DedupReport{}, fmt.Errorf("failed to delete %d duplicated vocabularies: %w", len(duplicates), err)
	}

	slog.Info("duplicated vocabularies deleted", "vocabularies", len(duplicates), "rows", deleted)
	return DedupReport{DuplicateVocabularies: len(duplicates), DeletedRows: deleted}, nil
}

package dictionary

import (
	"github.com/mahesh-hegde/hsrdict/app/common"
)

// DictionaryItem is one translation of a vocabulary in one language.
type DictionaryItem struct {
	// Assigned by the store on insert, never reused.
	ID           int64           `db:"id" json:"id"`
	VocabularyID int64           `db:"vocabulary_id" json:"vocabulary_id"`
	Language     common.Language `db:"language" json:"language"`
	Translation  string          `db:"translation" json:"translation"`
}

// NestedDictionaryItem is a vocabulary with all its translations, built
// around the row that matched a search.
type NestedDictionaryItem struct {
	VocabularyID   int64                      `json:"vocabulary_id"`
	Target         string                     `json:"target"`
	TargetLanguage common.Language            `json:"target_language"`
	Translations   map[common.Language]string `json:"translations"`
}

type SearchParams struct {
	Term string
	// 1-based; values below 1 mean the first page.
	Page     int
	PageSize int
}

type SearchResults struct {
	TotalPages int                    `json:"total_pages"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	Results    []NestedDictionaryItem `json:"results"`
}

// CandidatePage is one page of search candidates: the best matching row of
// each vocabulary, shortest translation first.
type CandidatePage struct {
	// Number of distinct vocabularies matching, over all pages.
	Total int
	Items []DictionaryItem
}

func nestItems(target DictionaryItem, siblings []DictionaryItem) NestedDictionaryItem {
	translations := make(map[common.Language]string, len(siblings))
	for _, s := range siblings {
		translations[s.Language] = s.Translation
	}
	return NestedDictionaryItem{
		VocabularyID:   target.VocabularyID,
		Target:         target.Translation,
		TargetLanguage: target.Language,
		Translations:   translations,
	}
}

package common

import (
	"fmt"
	"log/slog"
	"strings"
)

// LangPlaceholder is replaced by Language.UpperCode in a source URL template.
const LangPlaceholder = "{LANG}"

const DefaultSourceURLTemplate = "https://raw.githubusercontent.com/CanglongCl/StarRailData/master/TextMap/TextMap" + LangPlaceholder + ".json"

// Catalog is the fixed set of languages a refresh covers, each with the URL
// its translation map is fetched from. It is built once and never mutated.
type Catalog struct {
	languages []Language
	urls      map[Language]string
}

// NewCatalog builds a catalog for langs (all languages when empty), in
// catalog order, resolving source URLs from urlTemplate.
func NewCatalog(urlTemplate string, langs ...Language) (*Catalog, error) {
	if urlTemplate == "" {
		urlTemplate = DefaultSourceURLTemplate
	}
	if !strings.Contains(urlTemplate, LangPlaceholder) {
		return nil, fmt.Errorf("source url template %q has no %s placeholder", urlTemplate, LangPlaceholder)
	}

	wanted := make(map[Language]bool, len(langs))
	for _, l := range langs {
		if !l.Valid() {
			return nil, fmt.Errorf("unknown language code %q", l)
		}
		wanted[l] = true
	}

	c := &Catalog{urls: make(map[Language]string)}
	for _, l := range allLanguages {
		if len(wanted) > 0 && !wanted[l] {
			continue
		}
		url := strings.ReplaceAll(urlTemplate, LangPlaceholder, l.UpperCode())
		slog.Debug("source url for language", "lang", l, "url", url)
		c.languages = append(c.languages, l)
		c.urls[l] = url
	}
	return c, nil
}

// Languages returns the catalog languages in order.
func (c *Catalog) Languages() []Language {
	return append([]Language(nil), c.languages...)
}

func (c *Catalog) Len() int {
	return len(c.languages)
}

// SourceURL returns the URL of l's translation map; ok is false for
// languages outside the catalog.
func (c *Catalog) SourceURL(l Language) (url string, ok bool) {
	url, ok = c.urls[l]
	return url, ok
}

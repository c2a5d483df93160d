package common

import (
	"fmt"
	"strings"
)

// Language is the canonical short code of a supported language. The value
// itself is what gets stored and what appears in API responses.
type Language string

const (
	Cht Language = "cht"
	Chs Language = "chs"
	De  Language = "de"
	En  Language = "en"
	Es  Language = "es"
	Fr  Language = "fr"
	Id  Language = "id"
	Jp  Language = "jp"
	Kr  Language = "kr"
	Pt  Language = "pt"
	Ru  Language = "ru"
	Th  Language = "th"
	Vi  Language = "vi"
)

var allLanguages = [...]Language{Cht, Chs, De, En, Es, Fr, Id, Jp, Kr, Pt, Ru, Th, Vi}

// AllLanguages returns every supported language in catalog order.
func AllLanguages() []Language {
	return append([]Language(nil), allLanguages[:]...)
}

func ParseLanguage(code string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(code)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown language code %q", code)
	}
	return l, nil
}

func (l Language) Valid() bool {
	for _, known := range allLanguages {
		if l == known {
			return true
		}
	}
	return false
}

func (l Language) String() string {
	return string(l)
}

// UpperCode is the form used by the upstream TextMap file names, eg: CHS.
func (l Language) UpperCode() string {
	return strings.ToUpper(string(l))
}

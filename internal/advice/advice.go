// Package advice serves short per-language advice texts and rotates a
// "current" item on a fixed interval.
package advice

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
)

//go:embed data/advice.yaml
var bundled []byte

// Advice is one advice text.
type Advice struct {
	ID   int    `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Book holds the advice lists for every language.
type Book struct {
	lists map[catalog.Language][]Advice
}

// Load parses the advice embedded in the binary.
func Load() (*Book, error) {
	return Parse(bundled)
}

// Parse builds a Book from YAML keyed by language code. English is required
// because it is the fallback for every other language.
func Parse(data []byte) (*Book, error) {
	var raw map[string][]Advice
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode advice: %w", err)
	}
	lists := make(map[catalog.Language][]Advice, len(raw))
	for code, items := range raw {
		lang, err := catalog.ParseLanguage(code)
		if err != nil {
			return nil, err
		}
		for _, a := range items {
			if a.Text == "" {
				return nil, fmt.Errorf("%s: advice %d has no text", lang, a.ID)
			}
		}
		lists[lang] = items
	}
	if len(lists[catalog.LanguageEnglish]) == 0 {
		return nil, fmt.Errorf("advice for %q is required", catalog.LanguageEnglish)
	}
	return &Book{lists: lists}, nil
}

// List returns a copy of the advice for lang, falling back to English.
func (b *Book) List(lang catalog.Language) []Advice {
	src, ok := b.lists[lang]
	if !ok || len(src) == 0 {
		src = b.lists[catalog.LanguageEnglish]
	}
	out := make([]Advice, len(src))
	copy(out, src)
	return out
}

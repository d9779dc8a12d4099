// Package catalog loads the supplication tables bundled with the application.
// The tables are static, read-only, and indexed by language and type.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Language identifies a storage partition and a bundled table.
type Language string

// Supported languages.
const (
	LanguageEnglish Language = "en"
	LanguageTurkish Language = "tr"
	LanguageArabic  Language = "ar"
)

// Type selects the morning or evening list.
type Type string

// Supplication types.
const (
	TypeMorning Type = "morning"
	TypeEvening Type = "evening"
)

var (
	// ErrUnknownLanguage is returned for language codes outside the supported set.
	ErrUnknownLanguage = errors.New("unknown language")
	// ErrUnknownType is returned for anything other than morning or evening.
	ErrUnknownType = errors.New("unknown supplication type")
)

//go:embed data/supplications.yaml
var bundled []byte

// Supplication is one bundled devotional text. The JSON names match the
// records persisted by earlier releases of the app.
type Supplication struct {
	ID             string `json:"id" yaml:"id"`
	PrimaryText    string `json:"arabicText" yaml:"arabicText"`
	TranslatedText string `json:"translatedText" yaml:"translatedText"`
	RepeatCount    int    `json:"count" yaml:"count"`
}

// Tables holds the fixed morning and evening lists for one language.
type Tables struct {
	Morning []Supplication `yaml:"morning"`
	Evening []Supplication `yaml:"evening"`
}

// Catalog serves the bundled tables.
type Catalog struct {
	tables map[Language]Tables
}

// Languages lists the supported languages in display order.
func Languages() []Language {
	return []Language{LanguageEnglish, LanguageTurkish, LanguageArabic}
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageTurkish, LanguageArabic:
		return true
	default:
		return false
	}
}

// ParseLanguage normalizes and validates a language code.
func ParseLanguage(raw string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(raw)))
	if !lang.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, raw)
	}
	return lang, nil
}

// Valid reports whether t is morning or evening.
func (t Type) Valid() bool {
	return t == TypeMorning || t == TypeEvening
}

// ParseType normalizes and validates a supplication type.
func ParseType(raw string) (Type, error) {
	typ := Type(strings.ToLower(strings.TrimSpace(raw)))
	if !typ.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
	}
	return typ, nil
}

// Load parses the tables embedded in the binary.
func Load() (*Catalog, error) {
	return Parse(bundled)
}

// Parse builds a Catalog from YAML keyed by language code.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]Tables
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode supplication tables: %w", err)
	}
	tables := make(map[Language]Tables, len(raw))
	for code, t := range raw {
		lang, err := ParseLanguage(code)
		if err != nil {
			return nil, err
		}
		if err := validateList(lang, TypeMorning, t.Morning); err != nil {
			return nil, err
		}
		if err := validateList(lang, TypeEvening, t.Evening); err != nil {
			return nil, err
		}
		tables[lang] = t
	}
	return &Catalog{tables: tables}, nil
}

func validateList(lang Language, typ Type, list []Supplication) error {
	seen := make(map[string]struct{}, len(list))
	for _, s := range list {
		if s.ID == "" {
			return fmt.Errorf("%s/%s: supplication without id", lang, typ)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%s/%s: duplicate id %q", lang, typ, s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.RepeatCount < 1 {
			return fmt.Errorf("%s/%s: %s has repeat count %d", lang, typ, s.ID, s.RepeatCount)
		}
	}
	return nil
}

// List returns a copy of the bundled list for lang and typ in its fixed order.
func (c *Catalog) List(lang Language, typ Type) ([]Supplication, error) {
	if !lang.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	t := c.tables[lang]
	var src []Supplication
	switch typ {
	case TypeMorning:
		src = t.Morning
	case TypeEvening:
		src = t.Evening
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	out := make([]Supplication, len(src))
	copy(out, src)
	return out, nil
}

// Find looks up a bundled supplication by id.
func (c *Catalog) Find(lang Language, id string) (Supplication, Type, bool) {
	t, ok := c.tables[lang]
	if !ok {
		return Supplication{}, "", false
	}
	for _, s := range t.Morning {
		if s.ID == id {
			return s, TypeMorning, true
		}
	}
	for _, s := range t.Evening {
		if s.ID == id {
			return s, TypeEvening, true
		}
	}
	return Supplication{}, "", false
}

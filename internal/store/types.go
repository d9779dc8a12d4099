package store

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
)

// Persisted key prefixes; the language code is appended.
const (
	completionsKeyPrefix = "completedSupplications_"
	customKeyPrefix      = "customSupplications_"
	customIDPrefix       = "custom_"
)

// CompletionsKey returns the kv key holding the completion map for lang.
func CompletionsKey(lang catalog.Language) string { return completionsKeyPrefix + string(lang) }

// CustomKey returns the kv key holding the custom list for lang.
func CustomKey(lang catalog.Language) string { return customKeyPrefix + string(lang) }

// CompletionState maps supplication id to completed. Absent means not completed.
type CompletionState map[string]bool

// Clone returns an independent copy.
func (c CompletionState) Clone() CompletionState {
	out := make(CompletionState, len(c))
	maps.Copy(out, c)
	return out
}

// Count returns the number of ids marked true.
func (c CompletionState) Count() int {
	n := 0
	for _, done := range c {
		if done {
			n++
		}
	}
	return n
}

// CustomSupplication is a user-authored supplication.
type CustomSupplication struct {
	catalog.Supplication
	IsCustom bool         `json:"isCustom"`
	Type     catalog.Type `json:"type"`
}

// NewCustom is the input accepted by AddCustom.
type NewCustom struct {
	PrimaryText    string       `json:"arabicText" validate:"required"`
	TranslatedText string       `json:"translatedText" validate:"required"`
	RepeatCount    int          `json:"count" validate:"min=1,max=100"`
	Type           catalog.Type `json:"type" validate:"oneof=morning evening"`
}

// Snapshot is the state of one language partition.
type Snapshot struct {
	Language    catalog.Language     `json:"language"`
	Completions CompletionState      `json:"completions"`
	Custom      []CustomSupplication `json:"custom"`
}

func (s Snapshot) clone() Snapshot {
	custom := make([]CustomSupplication, len(s.Custom))
	copy(custom, s.Custom)
	return Snapshot{Language: s.Language, Completions: s.Completions.Clone(), Custom: custom}
}

// Scope selects which completions ResetCompletions clears.
type Scope string

// Reset scopes.
const (
	ScopeMorning Scope = "morning"
	ScopeEvening Scope = "evening"
	ScopeAll     Scope = "all"
)

// ErrUnknownScope is returned for scopes other than morning, evening, or all.
var ErrUnknownScope = errors.New("unknown reset scope")

// ParseScope normalizes and validates a reset scope.
func ParseScope(raw string) (Scope, error) {
	s := Scope(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case ScopeMorning, ScopeEvening, ScopeAll:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScope, raw)
	}
}

// keeps reports whether id survives a reset of scope s. Ids are matched by
// their literal prefix: a morning reset keeps "e…" ids, an evening reset keeps
// "m…" ids. Custom ids match neither and are always dropped by scoped resets.
func (s Scope) keeps(id string) bool {
	switch s {
	case ScopeMorning:
		return strings.HasPrefix(id, "e")
	case ScopeEvening:
		return strings.HasPrefix(id, "m")
	default:
		return false
	}
}

// ValidationError reports a malformed AddCustom field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PersistenceError reports a failed kv write.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persist %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

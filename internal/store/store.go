package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/kv"
	"github.com/JakeFAU/daily-supplications/internal/progress"
)

// Clock abstracts time for id generation and event stamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

var fieldMessages = map[string]string{
	"arabicText":     "Arabic text is required",
	"translatedText": "Translated text is required",
	"count":          "Count must be a number between 1 and 100",
	"type":           "Type must be morning or evening",
}

// ProgressStore tracks completions and custom supplications per language.
// It is safe for concurrent use within one process.
type ProgressStore struct {
	kv       kv.Store
	clock    Clock
	emitter  progress.Emitter
	logger   *zap.Logger
	validate *validator.Validate

	mu         sync.Mutex
	partitions map[catalog.Language]*Snapshot
}

// New builds a ProgressStore over kvStore. A nil clock, emitter, or logger
// falls back to the wall clock, a no-op emitter, and a no-op logger.
func New(kvStore kv.Store, clock Clock, emitter progress.Emitter, logger *zap.Logger) (*ProgressStore, error) {
	if kvStore == nil {
		return nil, fmt.Errorf("kv store is required")
	}
	if clock == nil {
		clock = systemClock{}
	}
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &ProgressStore{
		kv:         kvStore,
		clock:      clock,
		emitter:    emitter,
		logger:     logger,
		validate:   v,
		partitions: make(map[catalog.Language]*Snapshot),
	}, nil
}

// Load reads both records for lang from storage and makes them the cached
// partition. Missing keys, read failures, and corrupt JSON all yield empty
// state; only an unsupported language is an error.
func (s *ProgressStore) Load(ctx context.Context, lang catalog.Language) (Snapshot, error) {
	if !lang.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", catalog.ErrUnknownLanguage, lang)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.loadLocked(ctx, lang)
	return p.clone(), nil
}

// Current returns the cached partition for lang, loading it first if this
// process has not activated it yet.
func (s *ProgressStore) Current(ctx context.Context, lang catalog.Language) (Snapshot, error) {
	if !lang.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", catalog.ErrUnknownLanguage, lang)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partitionLocked(ctx, lang).clone(), nil
}

func (s *ProgressStore) partitionLocked(ctx context.Context, lang catalog.Language) *Snapshot {
	if p, ok := s.partitions[lang]; ok {
		return p
	}
	return s.loadLocked(ctx, lang)
}

func (s *ProgressStore) loadLocked(ctx context.Context, lang catalog.Language) *Snapshot {
	p := &Snapshot{
		Language:    lang,
		Completions: CompletionState{},
		Custom:      []CustomSupplication{},
	}
	var completions CompletionState
	if s.readJSON(ctx, CompletionsKey(lang), &completions) && completions != nil {
		p.Completions = completions
	}
	var custom []CustomSupplication
	if s.readJSON(ctx, CustomKey(lang), &custom) && custom != nil {
		p.Custom = custom
	}
	s.partitions[lang] = p
	s.logger.Debug("partition loaded",
		zap.String("lang", string(lang)),
		zap.Int("completed", p.Completions.Count()),
		zap.Int("custom", len(p.Custom)))
	evt := progress.NewEvent(s.clock.Now(), progress.StagePartitionLoaded, string(lang))
	evt.Count = p.Completions.Count()
	s.emitter.Emit(evt)
	return p
}

// readJSON decodes key into dst and reports whether dst was populated.
func (s *ProgressStore) readJSON(ctx context.Context, key string, dst any) bool {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false
	}
	if err != nil {
		s.logger.Warn("read failed, using empty state", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Warn("corrupt record, using empty state", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// MarkCompleted records id as completed and returns the updated map. The id
// is not checked against the catalog.
func (s *ProgressStore) MarkCompleted(ctx context.Context, lang catalog.Language, id string) (CompletionState, error) {
	if !lang.Valid() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownLanguage, lang)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.partitionLocked(ctx, lang)

	next := p.Completions.Clone()
	next[id] = true
	if err := s.persist(ctx, "mark completed", lang, CompletionsKey(lang), next); err != nil {
		return nil, err
	}
	p.Completions = next

	s.logger.Debug("supplication completed", zap.String("lang", string(lang)), zap.String("id", id))
	evt := progress.NewEvent(s.clock.Now(), progress.StageCompleted, string(lang))
	evt.SupplicationID = id
	evt.Count = next.Count()
	s.emitter.Emit(evt)
	return next.Clone(), nil
}

// ResetCompletions clears completions for scope and returns the remaining map.
func (s *ProgressStore) ResetCompletions(ctx context.Context, lang catalog.Language, scope Scope) (CompletionState, error) {
	if !lang.Valid() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownLanguage, lang)
	}
	scope, err := ParseScope(string(scope))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.partitionLocked(ctx, lang)

	next := CompletionState{}
	if scope != ScopeAll {
		for id, done := range p.Completions {
			if scope.keeps(id) {
				next[id] = done
			}
		}
	}
	if err := s.persist(ctx, "reset completions", lang, CompletionsKey(lang), next); err != nil {
		return nil, err
	}
	p.Completions = next

	s.logger.Debug("completions reset", zap.String("lang", string(lang)), zap.String("scope", string(scope)))
	evt := progress.NewEvent(s.clock.Now(), progress.StageReset, string(lang))
	evt.Scope = string(scope)
	evt.Count = next.Count()
	s.emitter.Emit(evt)
	return next.Clone(), nil
}

// AddCustom validates in, appends a new custom supplication, and returns it.
// Texts are trimmed before validation and storage.
func (s *ProgressStore) AddCustom(ctx context.Context, lang catalog.Language, in NewCustom) (CustomSupplication, error) {
	if !lang.Valid() {
		return CustomSupplication{}, fmt.Errorf("%w: %q", catalog.ErrUnknownLanguage, lang)
	}
	in.PrimaryText = strings.TrimSpace(in.PrimaryText)
	in.TranslatedText = strings.TrimSpace(in.TranslatedText)
	if err := s.validateNew(in); err != nil {
		return CustomSupplication{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.partitionLocked(ctx, lang)

	created := CustomSupplication{
		Supplication: catalog.Supplication{
			ID:             fmt.Sprintf("%s%d", customIDPrefix, s.clock.Now().UnixMilli()),
			PrimaryText:    in.PrimaryText,
			TranslatedText: in.TranslatedText,
			RepeatCount:    in.RepeatCount,
		},
		IsCustom: true,
		Type:     in.Type,
	}
	next := make([]CustomSupplication, 0, len(p.Custom)+1)
	next = append(next, p.Custom...)
	next = append(next, created)
	if err := s.persist(ctx, "add custom", lang, CustomKey(lang), next); err != nil {
		return CustomSupplication{}, err
	}
	p.Custom = next

	s.logger.Debug("custom supplication added", zap.String("lang", string(lang)), zap.String("id", created.ID))
	evt := progress.NewEvent(s.clock.Now(), progress.StageCustomAdded, string(lang))
	evt.SupplicationID = created.ID
	evt.Count = p.Completions.Count()
	s.emitter.Emit(evt)
	return created, nil
}

func (s *ProgressStore) validateNew(in NewCustom) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate custom supplication: %w", err)
	}
	field := fieldErrs[0].Field()
	msg, ok := fieldMessages[field]
	if !ok {
		msg = fieldErrs[0].Error()
	}
	return &ValidationError{Field: field, Message: msg}
}

// RemoveCustom deletes id from the custom list and from the completion map.
// Both writes are attempted; a failure in one leaves the other committed.
func (s *ProgressStore) RemoveCustom(ctx context.Context, lang catalog.Language, id string) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownLanguage, lang)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.partitionLocked(ctx, lang)

	nextList := make([]CustomSupplication, 0, len(p.Custom))
	for _, c := range p.Custom {
		if c.ID != id {
			nextList = append(nextList, c)
		}
	}
	listErr := s.persist(ctx, "remove custom", lang, CustomKey(lang), nextList)
	if listErr == nil {
		p.Custom = nextList
	}

	var mapErr error
	if _, ok := p.Completions[id]; ok {
		nextMap := p.Completions.Clone()
		delete(nextMap, id)
		mapErr = s.persist(ctx, "remove custom", lang, CompletionsKey(lang), nextMap)
		if mapErr == nil {
			p.Completions = nextMap
		}
	}

	if err := errors.Join(listErr, mapErr); err != nil {
		return err
	}
	s.logger.Debug("custom supplication removed", zap.String("lang", string(lang)), zap.String("id", id))
	evt := progress.NewEvent(s.clock.Now(), progress.StageCustomRemoved, string(lang))
	evt.SupplicationID = id
	evt.Count = p.Completions.Count()
	s.emitter.Emit(evt)
	return nil
}

// persist writes value as JSON under key. Failures are logged, emitted, and
// returned as *PersistenceError.
func (s *ProgressStore) persist(ctx context.Context, op string, lang catalog.Language, key string, value any) error {
	data, err := json.Marshal(value)
	if err == nil {
		err = s.kv.Set(ctx, key, string(data))
	}
	if err == nil {
		return nil
	}
	perr := &PersistenceError{Op: op, Key: key, Err: err}
	s.logger.Error("persist failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
	evt := progress.NewEvent(s.clock.Now(), progress.StagePersistError, string(lang))
	evt.Note = err.Error()
	s.emitter.Emit(evt)
	return perr
}

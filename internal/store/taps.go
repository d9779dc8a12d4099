package store

import (
	"context"
	"sync"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
)

// Completer is the slice of ProgressStore a TapCounter writes through.
type Completer interface {
	MarkCompleted(ctx context.Context, lang catalog.Language, id string) (CompletionState, error)
}

// TapResult describes the state of an item after one tap.
type TapResult struct {
	ID        string `json:"id"`
	Remaining int    `json:"remaining"`
	Completed bool   `json:"completed"`
}

// TapCounter tracks remaining taps per item in memory. Intermediate counts
// are never persisted; only reaching zero writes through MarkCompleted.
type TapCounter struct {
	lang      catalog.Language
	completer Completer

	mu        sync.Mutex
	remaining map[string]int
}

// NewTapCounter creates an empty counter for one language partition.
func NewTapCounter(lang catalog.Language, completer Completer) *TapCounter {
	return &TapCounter{lang: lang, completer: completer, remaining: make(map[string]int)}
}

// Remaining returns the taps left for item. Completed items report zero.
func (t *TapCounter) Remaining(item Item) int {
	if item.Completed {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.remaining[item.ID]; ok {
		return n
	}
	return item.RepeatCount
}

// Tap applies one tap to item. With more than one tap left the count is
// decremented; otherwise the item is marked completed. Tapping a completed
// item is a no-op.
func (t *TapCounter) Tap(ctx context.Context, item Item) (TapResult, error) {
	if item.Completed {
		return TapResult{ID: item.ID, Completed: true}, nil
	}
	t.mu.Lock()
	n, ok := t.remaining[item.ID]
	if !ok {
		n = item.RepeatCount
	}
	if n > 1 {
		t.remaining[item.ID] = n - 1
		t.mu.Unlock()
		return TapResult{ID: item.ID, Remaining: n - 1}, nil
	}
	t.mu.Unlock()

	if _, err := t.completer.MarkCompleted(ctx, t.lang, item.ID); err != nil {
		return TapResult{ID: item.ID, Remaining: n}, err
	}
	t.mu.Lock()
	delete(t.remaining, item.ID)
	t.mu.Unlock()
	return TapResult{ID: item.ID, Completed: true}, nil
}

// Forget drops every in-memory count, e.g. after a reset.
func (t *TapCounter) Forget() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.remaining)
}

// ForgetID drops the in-memory count for one item.
func (t *TapCounter) ForgetID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.remaining, id)
}

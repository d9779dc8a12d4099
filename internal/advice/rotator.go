package advice

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/metrics"
)

// DefaultInterval is how long one advice stays current.
const DefaultInterval = 20 * time.Second

// Rotator picks a random advice for the active language on start, on every
// tick, and whenever the active language changes.
type Rotator struct {
	book     *Book
	language func() catalog.Language
	interval time.Duration
	logger   *zap.Logger
	pick     func(n int) int

	mu          sync.RWMutex
	current     Advice
	currentLang catalog.Language
}

// NewRotator builds a Rotator. language reports the active language; a nil
// func means English.
func NewRotator(book *Book, language func() catalog.Language, interval time.Duration, logger *zap.Logger) *Rotator {
	if language == nil {
		language = func() catalog.Language { return catalog.LanguageEnglish }
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Rotator{
		book:     book,
		language: language,
		interval: interval,
		logger:   logger,
		pick:     rand.IntN,
	}
	r.Rotate()
	return r
}

// Run rotates on every interval until ctx is cancelled.
func (r *Rotator) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.logger.Debug("advice rotation started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("advice rotation stopped")
			return nil
		case <-ticker.C:
			r.Rotate()
		}
	}
}

// Rotate replaces the current advice with a random one for the active language.
func (r *Rotator) Rotate() Advice {
	lang := r.language()
	list := r.book.List(lang)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentLang = lang
	if len(list) == 0 {
		r.current = Advice{}
		return r.current
	}
	r.current = list[r.pick(len(list))]
	metrics.ObserveAdviceRotation()
	return r.current
}

// Current returns the current advice, re-picking first if the active
// language changed since the last rotation.
func (r *Rotator) Current() Advice {
	r.mu.RLock()
	cur, lang := r.current, r.currentLang
	r.mu.RUnlock()
	if lang != r.language() {
		return r.Rotate()
	}
	return cur
}

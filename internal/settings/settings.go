// Package settings persists user preferences (language, theme, reminders,
// sound) and notifies listeners when the active language changes.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/kv"
	"github.com/JakeFAU/daily-supplications/internal/store"
)

// Persisted keys.
const (
	KeyLanguage             = "userLanguage"
	KeyTheme                = "themePreference"
	KeyNotificationsEnabled = "notificationsEnabled"
	KeyMorningReminder      = "morningReminderTime"
	KeyEveningReminder      = "eveningReminderTime"
	KeySoundEnabled         = "soundEnabled"
)

// Default reminder times.
const (
	DefaultMorningReminder = "06:00"
	DefaultEveningReminder = "18:00"
)

// Theme is the colour scheme preference.
type Theme string

// Supported themes.
const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

var (
	// ErrInvalidTheme is returned for themes other than light, dark, or system.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrInvalidTime is returned for reminder times not in HH:MM form.
	ErrInvalidTime = errors.New("invalid reminder time")
)

// Preferences is the full set of user settings.
type Preferences struct {
	Language             catalog.Language `json:"language"`
	Theme                Theme            `json:"theme"`
	NotificationsEnabled bool             `json:"notificationsEnabled"`
	MorningReminder      string           `json:"morningReminderTime"`
	EveningReminder      string           `json:"eveningReminderTime"`
	SoundEnabled         bool             `json:"soundEnabled"`
}

// LanguageListener runs after the active language changes (and once after Load).
type LanguageListener func(ctx context.Context, lang catalog.Language) error

// Service reads and writes preferences through a kv.Store. Every setter
// persists before updating the cached value.
type Service struct {
	kv       kv.Store
	logger   *zap.Logger
	fallback catalog.Language

	// toggleMu serializes read-modify-write toggles.
	toggleMu sync.Mutex

	mu        sync.RWMutex
	prefs     Preferences
	listeners []LanguageListener
}

// New builds a Service. defaultLocale (e.g. "tr-TR") picks the language used
// when none has been stored.
func New(kvStore kv.Store, defaultLocale string, logger *zap.Logger) (*Service, error) {
	if kvStore == nil {
		return nil, fmt.Errorf("kv store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := ResolveLanguage(defaultLocale)
	return &Service{
		kv:       kvStore,
		logger:   logger,
		fallback: fallback,
		prefs:    defaults(fallback),
	}, nil
}

func defaults(lang catalog.Language) Preferences {
	return Preferences{
		Language:        lang,
		Theme:           ThemeSystem,
		MorningReminder: DefaultMorningReminder,
		EveningReminder: DefaultEveningReminder,
		SoundEnabled:    true,
	}
}

// ResolveLanguage maps a device locale such as "ar-SA" to a supported
// language. Anything other than Turkish or Arabic resolves to English.
func ResolveLanguage(locale string) catalog.Language {
	base, _, _ := strings.Cut(strings.TrimSpace(locale), "-")
	base, _, _ = strings.Cut(base, "_")
	switch lang := catalog.Language(strings.ToLower(base)); lang {
	case catalog.LanguageTurkish, catalog.LanguageArabic:
		return lang
	default:
		return catalog.LanguageEnglish
	}
}

// ParseReminderTime validates an HH:MM string and returns its parts.
func ParseReminderTime(raw string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	hour, herr := strconv.Atoi(h)
	minute, merr := strconv.Atoi(m)
	if herr != nil || merr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return hour, minute, nil
}

// OnLanguageChange registers a listener.
func (s *Service) OnLanguageChange(l LanguageListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load reads every preference, keeping defaults for missing or unreadable
// values, then notifies language listeners of the active language.
func (s *Service) Load(ctx context.Context) (Preferences, error) {
	prefs := defaults(s.fallback)

	if v, ok := s.read(ctx, KeyLanguage); ok {
		if lang, err := catalog.ParseLanguage(v); err == nil {
			prefs.Language = lang
		} else {
			s.logger.Warn("ignoring stored language", zap.String("value", v))
		}
	}
	if v, ok := s.read(ctx, KeyTheme); ok {
		if t, err := ParseTheme(v); err == nil {
			prefs.Theme = t
		} else {
			s.logger.Warn("ignoring stored theme", zap.String("value", v))
		}
	}
	if v, ok := s.read(ctx, KeyNotificationsEnabled); ok {
		prefs.NotificationsEnabled = v == "true"
	}
	if v, ok := s.read(ctx, KeyMorningReminder); ok && v != "" {
		prefs.MorningReminder = v
	}
	if v, ok := s.read(ctx, KeyEveningReminder); ok && v != "" {
		prefs.EveningReminder = v
	}
	if v, ok := s.read(ctx, KeySoundEnabled); ok {
		prefs.SoundEnabled = v == "true"
	}

	s.mu.Lock()
	s.prefs = prefs
	s.mu.Unlock()

	return prefs, s.notify(ctx, prefs.Language)
}

func (s *Service) read(ctx context.Context, key string) (string, bool) {
	v, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return "", false
	}
	if err != nil {
		s.logger.Warn("read preference failed, using default", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return v, true
}

// Current returns the cached preferences.
func (s *Service) Current() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Language returns the active language.
func (s *Service) Language() catalog.Language {
	return s.Current().Language
}

// SetLanguage persists lang, makes it active, and notifies listeners.
func (s *Service) SetLanguage(ctx context.Context, lang catalog.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownLanguage, lang)
	}
	if err := s.write(ctx, KeyLanguage, string(lang)); err != nil {
		return err
	}
	s.update(func(p *Preferences) { p.Language = lang })
	s.logger.Info("language changed", zap.String("lang", string(lang)))
	return s.notify(ctx, lang)
}

func (s *Service) notify(ctx context.Context, lang catalog.Language) error {
	s.mu.RLock()
	listeners := append([]LanguageListener(nil), s.listeners...)
	s.mu.RUnlock()
	var errs []error
	for _, l := range listeners {
		if err := l(ctx, lang); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParseTheme validates a theme name.
func ParseTheme(raw string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, raw)
	}
}

// SetTheme persists the theme preference.
func (s *Service) SetTheme(ctx context.Context, theme Theme) error {
	t, err := ParseTheme(string(theme))
	if err != nil {
		return err
	}
	if err := s.write(ctx, KeyTheme, string(t)); err != nil {
		return err
	}
	s.update(func(p *Preferences) { p.Theme = t })
	return nil
}

// ToggleNotifications flips reminder delivery and returns the new state.
func (s *Service) ToggleNotifications(ctx context.Context) (bool, error) {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()
	next := !s.Current().NotificationsEnabled
	if err := s.write(ctx, KeyNotificationsEnabled, strconv.FormatBool(next)); err != nil {
		return !next, err
	}
	s.update(func(p *Preferences) { p.NotificationsEnabled = next })
	return next, nil
}

// ToggleSound flips sound effects and returns the new state.
func (s *Service) ToggleSound(ctx context.Context) (bool, error) {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()
	next := !s.Current().SoundEnabled
	if err := s.write(ctx, KeySoundEnabled, strconv.FormatBool(next)); err != nil {
		return !next, err
	}
	s.update(func(p *Preferences) { p.SoundEnabled = next })
	return next, nil
}

// SetMorningReminder persists the morning reminder time (HH:MM).
func (s *Service) SetMorningReminder(ctx context.Context, hhmm string) error {
	return s.setReminder(ctx, KeyMorningReminder, hhmm, func(p *Preferences, v string) { p.MorningReminder = v })
}

// SetEveningReminder persists the evening reminder time (HH:MM).
func (s *Service) SetEveningReminder(ctx context.Context, hhmm string) error {
	return s.setReminder(ctx, KeyEveningReminder, hhmm, func(p *Preferences, v string) { p.EveningReminder = v })
}

func (s *Service) setReminder(ctx context.Context, key, raw string, apply func(*Preferences, string)) error {
	hour, minute, err := ParseReminderTime(raw)
	if err != nil {
		return err
	}
	v := fmt.Sprintf("%02d:%02d", hour, minute)
	if err := s.write(ctx, key, v); err != nil {
		return err
	}
	s.update(func(p *Preferences) { apply(p, v) })
	return nil
}

func (s *Service) write(ctx context.Context, key, value string) error {
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.logger.Error("persist preference failed", zap.String("key", key), zap.Error(err))
		return &store.PersistenceError{Op: "set preference", Key: key, Err: err}
	}
	return nil
}

func (s *Service) update(fn func(*Preferences)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.prefs)
}

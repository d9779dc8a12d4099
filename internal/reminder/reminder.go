// Package reminder publishes daily morning and evening reminders at the
// times stored in user settings.
package reminder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/metrics"
	"github.com/JakeFAU/daily-supplications/internal/publisher"
	"github.com/JakeFAU/daily-supplications/internal/settings"
)

// DefaultRecheck bounds how long the scheduler sleeps before re-reading settings.
const DefaultRecheck = time.Minute

// Kind is the reminder slot.
type Kind string

// Reminder kinds.
const (
	KindMorning Kind = "morning"
	KindEvening Kind = "evening"
)

// Notification is the payload published for one reminder.
type Notification struct {
	Kind     Kind             `json:"kind"`
	Title    string           `json:"title"`
	Body     string           `json:"body"`
	Language catalog.Language `json:"language"`
	FireAt   time.Time        `json:"fireAt"`
}

func content(kind Kind) (title, body string) {
	if kind == KindEvening {
		return "Evening Supplications", "Time to read your evening supplications"
	}
	return "Morning Supplications", "Time to read your morning supplications"
}

// NextFire returns the first occurrence of hhmm in loc strictly after now.
func NextFire(now time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	hour, minute, err := settings.ParseReminderTime(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	fire := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !fire.After(local) {
		fire = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return fire, nil
}

// Preferences supplies the current settings.
type Preferences interface {
	Current() settings.Preferences
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Config wires a Scheduler.
type Config struct {
	Topic    string
	Location *time.Location
	Recheck  time.Duration
	Clock    Clock
	Logger   *zap.Logger
}

// Scheduler sleeps until the next due reminder and publishes it.
type Scheduler struct {
	prefs   Preferences
	pub     publisher.Publisher
	topic   string
	loc     *time.Location
	recheck time.Duration
	clock   Clock
	logger  *zap.Logger
	after   func(time.Duration) <-chan time.Time
}

// NewScheduler builds a Scheduler.
func NewScheduler(prefs Preferences, pub publisher.Publisher, cfg Config) (*Scheduler, error) {
	if prefs == nil {
		return nil, fmt.Errorf("preferences source is required")
	}
	if pub == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Recheck <= 0 {
		cfg.Recheck = DefaultRecheck
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Scheduler{
		prefs:   prefs,
		pub:     pub,
		topic:   cfg.Topic,
		loc:     cfg.Location,
		recheck: cfg.Recheck,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
		after:   time.After,
	}, nil
}

// Next returns the earliest reminder strictly after now, or false when
// notifications are disabled.
func (s *Scheduler) Next(now time.Time) (Notification, bool) {
	p := s.prefs.Current()
	if !p.NotificationsEnabled {
		return Notification{}, false
	}
	var (
		best  Notification
		found bool
	)
	for _, slot := range []struct {
		kind Kind
		hhmm string
	}{
		{KindMorning, p.MorningReminder},
		{KindEvening, p.EveningReminder},
	} {
		at, err := NextFire(now, slot.hhmm, s.loc)
		if err != nil {
			s.logger.Warn("skipping invalid reminder time", zap.String("kind", string(slot.kind)), zap.String("value", slot.hhmm))
			continue
		}
		if !found || at.Before(best.FireAt) {
			title, body := content(slot.kind)
			best = Notification{Kind: slot.kind, Title: title, Body: body, Language: p.Language, FireAt: at}
			found = true
		}
	}
	return best, found
}

// Run publishes reminders until ctx is cancelled. Settings are re-read at
// least every recheck interval, so toggles and time changes apply without a
// restart.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("reminder scheduler started", zap.String("topic", s.topic), zap.String("tz", s.loc.String()))
	for {
		now := s.clock.Now()
		next, ok := s.Next(now)
		wait := s.recheck
		if ok {
			if d := next.FireAt.Sub(now); d < wait {
				wait = d
			}
		}

		select {
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopped")
			return nil
		case <-s.after(wait):
		}

		if !ok || s.clock.Now().Before(next.FireAt) {
			continue
		}
		// Settings may have changed while sleeping; only fire if this
		// occurrence is still the one due.
		still, ok := s.Next(next.FireAt.Add(-time.Nanosecond))
		if !ok || still.Kind != next.Kind || !still.FireAt.Equal(next.FireAt) {
			continue
		}
		s.publish(ctx, still)
	}
}

func (s *Scheduler) publish(ctx context.Context, n Notification) {
	id, err := s.pub.Publish(ctx, s.topic, n)
	if err != nil {
		metrics.ObserveReminder(string(n.Kind), "error")
		s.logger.Error("publish reminder failed", zap.String("kind", string(n.Kind)), zap.Error(err))
		return
	}
	metrics.ObserveReminder(string(n.Kind), "ok")
	s.logger.Info("reminder published",
		zap.String("kind", string(n.Kind)),
		zap.String("message_id", id),
		zap.Time("fire_at", n.FireAt))
}

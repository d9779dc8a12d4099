package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/publisher/memory"
	"github.com/JakeFAU/daily-supplications/internal/settings"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type staticPrefs struct {
	p settings.Preferences
}

func (s *staticPrefs) Current() settings.Preferences { return s.p }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func enabledPrefs() *staticPrefs {
	return &staticPrefs{p: settings.Preferences{
		Language:             catalog.LanguageTurkish,
		NotificationsEnabled: true,
		MorningReminder:      "06:00",
		EveningReminder:      "18:00",
	}}
}

func at(hour, minute, sec int) time.Time {
	return time.Date(2026, time.March, 10, hour, minute, sec, 0, time.UTC)
}

// ready returns an already-fired timer channel.
func ready() <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestNextFire(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		now     time.Time
		hhmm    string
		want    time.Time
		wantErr bool
	}{
		{name: "later today", now: at(5, 0, 0), hhmm: "06:00", want: at(6, 0, 0)},
		{name: "exactly now rolls to tomorrow", now: at(6, 0, 0), hhmm: "06:00", want: at(6, 0, 0).AddDate(0, 0, 1)},
		{name: "already passed", now: at(19, 30, 0), hhmm: "18:00", want: at(18, 0, 0).AddDate(0, 0, 1)},
		{name: "single digit hour", now: at(1, 0, 0), hhmm: "7:05", want: at(7, 5, 0)},
		{name: "invalid", now: at(1, 0, 0), hhmm: "25:00", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NextFire(tt.now, tt.hhmm, time.UTC)
			if tt.wantErr {
				assert.ErrorIs(t, err, settings.ErrInvalidTime)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestNextFireHonoursLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	// 02:30 UTC is 05:30 at UTC+3, so 06:00 local is 03:00 UTC the same day.
	got, err := NextFire(at(2, 30, 0), "06:00", loc)
	require.NoError(t, err)
	assert.True(t, at(3, 0, 0).Equal(got))
}

func TestSchedulerNext(t *testing.T) {
	t.Parallel()

	prefs := enabledPrefs()
	s, err := NewScheduler(prefs, memory.New(), Config{Topic: "reminders"})
	require.NoError(t, err)

	n, ok := s.Next(at(12, 0, 0))
	require.True(t, ok)
	assert.Equal(t, KindEvening, n.Kind)
	assert.Equal(t, "Evening Supplications", n.Title)
	assert.Equal(t, "Time to read your evening supplications", n.Body)
	assert.Equal(t, catalog.LanguageTurkish, n.Language)
	assert.True(t, at(18, 0, 0).Equal(n.FireAt))

	n, ok = s.Next(at(20, 0, 0))
	require.True(t, ok)
	assert.Equal(t, KindMorning, n.Kind)
	assert.True(t, at(6, 0, 0).AddDate(0, 0, 1).Equal(n.FireAt))

	prefs.p.NotificationsEnabled = false
	_, ok = s.Next(at(12, 0, 0))
	assert.False(t, ok)
}

func TestSchedulerSkipsInvalidSlot(t *testing.T) {
	t.Parallel()

	prefs := enabledPrefs()
	prefs.p.EveningReminder = "bogus"
	s, err := NewScheduler(prefs, memory.New(), Config{})
	require.NoError(t, err)

	n, ok := s.Next(at(12, 0, 0))
	require.True(t, ok)
	assert.Equal(t, KindMorning, n.Kind)
}

func TestNewSchedulerValidation(t *testing.T) {
	t.Parallel()

	_, err := NewScheduler(nil, memory.New(), Config{})
	assert.Error(t, err)
	_, err = NewScheduler(enabledPrefs(), nil, Config{})
	assert.Error(t, err)
}

func TestRunPublishesMorningThenEvening(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{now: at(5, 59, 30)}
	pub := memory.New()
	s, err := NewScheduler(enabledPrefs(), pub, Config{Topic: "reminders", Clock: clock})
	require.NoError(t, err)
	s.after = func(d time.Duration) <-chan time.Time {
		if pub.Len() >= 2 {
			cancel()
		}
		clock.now = clock.now.Add(d)
		return ready()
	}

	require.NoError(t, s.Run(ctx))

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	first, ok := msgs[0].Payload.(Notification)
	require.True(t, ok)
	assert.Equal(t, "reminders", msgs[0].Topic)
	assert.Equal(t, KindMorning, first.Kind)
	assert.True(t, at(6, 0, 0).Equal(first.FireAt))

	second, ok := msgs[1].Payload.(Notification)
	require.True(t, ok)
	assert.Equal(t, KindEvening, second.Kind)
	assert.True(t, at(18, 0, 0).Equal(second.FireAt))
}

func TestRunWaitsAtMostRecheck(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{now: at(0, 0, 0)}
	s, err := NewScheduler(enabledPrefs(), memory.New(), Config{Clock: clock, Recheck: 10 * time.Minute})
	require.NoError(t, err)

	var waits []time.Duration
	s.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		if len(waits) == 3 {
			cancel()
			return make(chan time.Time)
		}
		clock.now = clock.now.Add(d)
		return ready()
	}

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, []time.Duration{10 * time.Minute, 10 * time.Minute, 10 * time.Minute}, waits)
}

func TestRunDisabledNeverPublishes(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prefs := enabledPrefs()
	prefs.p.NotificationsEnabled = false
	clock := &fakeClock{now: at(5, 0, 0)}
	pub := memory.New()
	s, err := NewScheduler(prefs, pub, Config{Clock: clock})
	require.NoError(t, err)

	calls := 0
	s.after = func(d time.Duration) <-chan time.Time {
		calls++
		if calls > 200 {
			cancel()
			return make(chan time.Time)
		}
		clock.now = clock.now.Add(d)
		return ready()
	}

	require.NoError(t, s.Run(ctx))
	assert.Zero(t, pub.Len())
}

func TestRunSkipsReminderMovedWhileSleeping(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prefs := enabledPrefs()
	clock := &fakeClock{now: at(5, 59, 30)}
	pub := memory.New()
	s, err := NewScheduler(prefs, pub, Config{Clock: clock})
	require.NoError(t, err)

	first := true
	s.after = func(d time.Duration) <-chan time.Time {
		if first {
			prefs.p.MorningReminder = "07:00"
			first = false
		}
		if !clock.now.Before(at(6, 30, 0)) {
			cancel()
			return make(chan time.Time)
		}
		clock.now = clock.now.Add(d)
		return ready()
	}

	require.NoError(t, s.Run(ctx))
	assert.Zero(t, pub.Len())
}

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/daily-supplications/internal/advice"
	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/config"
	"github.com/JakeFAU/daily-supplications/internal/kv/memory"
	"github.com/JakeFAU/daily-supplications/internal/settings"
)

func TestSettingsHandler_Get(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	rec := env.do(t, http.MethodGet, "/v1/settings", "")

	require.Equal(t, http.StatusOK, rec.Code)
	prefs := decodeBody[settings.Preferences](t, rec)
	assert.Equal(t, catalog.LanguageEnglish, prefs.Language)
	assert.Equal(t, settings.ThemeSystem, prefs.Theme)
	assert.Equal(t, "06:00", prefs.MorningReminder)
	assert.Equal(t, "18:00", prefs.EveningReminder)
	assert.True(t, prefs.SoundEnabled)
	assert.False(t, prefs.NotificationsEnabled)
}

func TestSettingsHandler_SetLanguageReloadsPartition(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	require.NoError(t, env.kv.Set(context.Background(), "completedSupplications_tr", `{"m3":true}`))

	rec := env.do(t, http.MethodPut, "/v1/settings/language", `{"language":"tr"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalog.LanguageTurkish, decodeBody[settings.Preferences](t, rec).Language)

	stored, err := env.kv.Get(context.Background(), settings.KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "tr", stored)

	snap, err := env.progress.Current(context.Background(), catalog.LanguageTurkish)
	require.NoError(t, err)
	assert.True(t, snap.Completions["m3"])

	rec = env.do(t, http.MethodPut, "/v1/settings/language", `{"language":"de"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsHandler_Theme(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	rec := env.do(t, http.MethodPut, "/v1/settings/theme", `{"theme":"dark"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, settings.ThemeDark, env.settings.Current().Theme)

	rec = env.do(t, http.MethodPut, "/v1/settings/theme", `{"theme":"sepia"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, settings.ThemeDark, env.settings.Current().Theme)
}

func TestSettingsHandler_Reminders(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	rec := env.do(t, http.MethodPut, "/v1/settings/reminders", `{"morning":"5:30","evening":"19:45"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	prefs := decodeBody[settings.Preferences](t, rec)
	assert.Equal(t, "05:30", prefs.MorningReminder)
	assert.Equal(t, "19:45", prefs.EveningReminder)

	// An invalid evening leaves the valid morning unwritten.
	rec = env.do(t, http.MethodPut, "/v1/settings/reminders", `{"morning":"07:00","evening":"24:00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "05:30", env.settings.Current().MorningReminder)

	rec = env.do(t, http.MethodPut, "/v1/settings/reminders", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsHandler_Toggles(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)

	rec := env.do(t, http.MethodPost, "/v1/settings/notifications/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"enabled": true}, decodeBody[map[string]bool](t, rec))

	rec = env.do(t, http.MethodPost, "/v1/settings/sound/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"enabled": false}, decodeBody[map[string]bool](t, rec))

	prefs := env.settings.Current()
	assert.True(t, prefs.NotificationsEnabled)
	assert.False(t, prefs.SoundEnabled)
}

func TestAdviceHandlers(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)

	rec := env.do(t, http.MethodGet, "/v1/tr/advice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	type adviceList struct {
		Language string          `json:"language"`
		Advice   []advice.Advice `json:"advice"`
	}
	list := decodeBody[adviceList](t, rec)
	assert.Equal(t, "tr", list.Language)
	assert.Len(t, list.Advice, 10)

	rec = env.do(t, http.MethodGet, "/v1/advice/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	current := decodeBody[advice.Advice](t, rec)
	assert.NotEmpty(t, current.Text)

	env.server.deps.Rotator = nil
	rec = env.do(t, http.MethodGet, "/v1/advice/current", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSettingsHandler_PersistFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, failingKV{Store: memory.New()})

	rec := env.do(t, http.MethodPut, "/v1/settings/theme", `{"theme":"dark"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, settings.ThemeSystem, env.settings.Current().Theme)

	rec = env.do(t, http.MethodPost, "/v1/settings/sound/toggle", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/daily-supplications/internal/config"
	"github.com/JakeFAU/daily-supplications/internal/kv/memory"
	"github.com/JakeFAU/daily-supplications/internal/store"
)

type listBody struct {
	Language string `json:"language"`
	Type     string `json:"type"`
	Items    []struct {
		ID        string `json:"id"`
		Count     int    `json:"count"`
		IsCustom  bool   `json:"isCustom"`
		Completed bool   `json:"completed"`
		Remaining int    `json:"remaining"`
	} `json:"items"`
	Progress store.Progress `json:"progress"`
}

type progressBody struct {
	Language    string           `json:"language"`
	Completions map[string]bool  `json:"completions"`
	Custom      []map[string]any `json:"custom"`
	Morning     store.Progress   `json:"morning"`
	Evening     store.Progress   `json:"evening"`
}

type completionsBody struct {
	Completions map[string]bool `json:"completions"`
}

func TestProgressHandler_ListSupplications(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	rec := env.do(t, http.MethodGet, "/v1/en/supplications/morning", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[listBody](t, rec)
	require.Len(t, body.Items, 5)
	assert.Equal(t, "m1", body.Items[0].ID)
	for _, it := range body.Items {
		assert.Equal(t, it.Count, it.Remaining)
		assert.False(t, it.Completed)
	}
	assert.Equal(t, store.Progress{Total: 5}, body.Progress)
}

func TestProgressHandler_ListRejectsUnknownType(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	rec := env.do(t, http.MethodGet, "/v1/en/supplications/noon", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgressHandler_MarkCompletedAndProgress(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	rec := env.do(t, http.MethodPost, "/v1/tr/completions/m1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"m1": true}, decodeBody[completionsBody](t, rec).Completions)

	rec = env.do(t, http.MethodGet, "/v1/tr/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[progressBody](t, rec)
	assert.Equal(t, "tr", body.Language)
	assert.True(t, body.Completions["m1"])
	assert.Equal(t, store.Progress{Total: 5, Completed: 1}, body.Morning)
	assert.Equal(t, store.Progress{Total: 5}, body.Evening)

	// Other partitions are untouched.
	rec = env.do(t, http.MethodGet, "/v1/en/progress", "")
	assert.Empty(t, decodeBody[progressBody](t, rec).Completions)
}

func TestProgressHandler_AllCompleted(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	for _, id := range []string{"e1", "e2", "e3", "e4", "e5"} {
		rec := env.do(t, http.MethodPost, "/v1/ar/completions/"+id, "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/v1/ar/supplications/evening", "")
	body := decodeBody[listBody](t, rec)
	assert.True(t, body.Progress.AllCompleted)
	for _, it := range body.Items {
		assert.Zero(t, it.Remaining)
	}
}

func TestProgressHandler_Reset(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	for _, id := range []string{"m1", "m2", "e1"} {
		env.do(t, http.MethodPost, "/v1/en/completions/"+id, "")
	}

	rec := env.do(t, http.MethodPost, "/v1/en/completions/reset", `{"scope":"morning"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"e1": true}, decodeBody[completionsBody](t, rec).Completions)

	rec = env.do(t, http.MethodPost, "/v1/en/completions/reset", `{"scope":"all"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[completionsBody](t, rec).Completions)
}

func TestProgressHandler_ResetRejectsBadInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)

	rec := env.do(t, http.MethodPost, "/v1/en/completions/reset", `{"scope":"noon"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/en/completions/reset", `{invalid`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgressHandler_TapCountsDown(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)

	// m2 must be read three times.
	for want := 2; want >= 1; want-- {
		rec := env.do(t, http.MethodPost, "/v1/en/taps/m2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		res := decodeBody[store.TapResult](t, rec)
		assert.Equal(t, want, res.Remaining)
		assert.False(t, res.Completed)
	}

	snap, err := env.progress.Current(context.Background(), "en")
	require.NoError(t, err)
	assert.False(t, snap.Completions["m2"], "intermediate taps must not persist")

	rec := env.do(t, http.MethodPost, "/v1/en/taps/m2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[store.TapResult](t, rec).Completed)

	snap, err = env.progress.Current(context.Background(), "en")
	require.NoError(t, err)
	assert.True(t, snap.Completions["m2"])
}

func TestProgressHandler_TapShowsInList(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	env.do(t, http.MethodPost, "/v1/en/taps/m2", "")

	body := decodeBody[listBody](t, env.do(t, http.MethodGet, "/v1/en/supplications/morning", ""))
	for _, it := range body.Items {
		if it.ID == "m2" {
			assert.Equal(t, 2, it.Remaining)
		}
	}

	env.do(t, http.MethodPost, "/v1/en/completions/reset", `{"scope":"all"}`)
	body = decodeBody[listBody](t, env.do(t, http.MethodGet, "/v1/en/supplications/morning", ""))
	for _, it := range body.Items {
		if it.ID == "m2" {
			assert.Equal(t, 3, it.Remaining, "reset forgets in-progress taps")
		}
	}
}

func TestProgressHandler_TapUnknown(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	rec := env.do(t, http.MethodPost, "/v1/en/taps/nope", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProgressHandler_CustomLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	rec := env.do(t, http.MethodPost, "/v1/en/custom",
		`{"arabicText":"  سبحان الله  ","translatedText":"Glory be to God","count":2,"type":"evening"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[store.CustomSupplication](t, rec)
	assert.Contains(t, created.ID, "custom_")
	assert.Equal(t, "سبحان الله", created.PrimaryText)
	assert.True(t, created.IsCustom)

	body := decodeBody[listBody](t, env.do(t, http.MethodGet, "/v1/en/supplications/evening", ""))
	require.Len(t, body.Items, 6)
	last := body.Items[5]
	assert.Equal(t, created.ID, last.ID)
	assert.True(t, last.IsCustom)

	// Two taps complete a count-2 custom item.
	env.do(t, http.MethodPost, "/v1/en/taps/"+created.ID, "")
	rec = env.do(t, http.MethodPost, "/v1/en/taps/"+created.ID, "")
	assert.True(t, decodeBody[store.TapResult](t, rec).Completed)

	rec = env.do(t, http.MethodDelete, "/v1/en/custom/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	snap, err := env.progress.Current(context.Background(), "en")
	require.NoError(t, err)
	assert.Empty(t, snap.Custom)
	assert.NotContains(t, snap.Completions, created.ID)

	body = decodeBody[listBody](t, env.do(t, http.MethodGet, "/v1/en/supplications/morning", ""))
	assert.Len(t, body.Items, 5)
}

func TestProgressHandler_AddCustomValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing arabic", body: `{"arabicText":"  ","translatedText":"x","count":1,"type":"morning"}`, field: "arabicText"},
		{name: "missing translation", body: `{"arabicText":"x","translatedText":"","count":1,"type":"morning"}`, field: "translatedText"},
		{name: "count too high", body: `{"arabicText":"x","translatedText":"y","count":101,"type":"morning"}`, field: "count"},
		{name: "bad type", body: `{"arabicText":"x","translatedText":"y","count":1,"type":"noon"}`, field: "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, config.Config{}, nil)
			rec := env.do(t, http.MethodPost, "/v1/en/custom", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.field, decodeBody[map[string]string](t, rec)["field"])
		})
	}
}

func TestProgressHandler_AddCustomRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	rec := env.do(t, http.MethodPost, "/v1/en/custom", `{"arabicText":"x","translatedText":"y","count":1,"type":"morning","extra":1}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// failingKV serves reads from memory and fails every write.
type failingKV struct {
	*memory.Store
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestProgressHandler_PersistFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, failingKV{Store: memory.New()})

	rec := env.do(t, http.MethodPost, "/v1/en/completions/m1", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/en/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[progressBody](t, rec).Completions)

	rec = env.do(t, http.MethodDelete, "/v1/en/custom/custom_1", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProgressHandler_RemoveCustomForgetsTaps(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, config.Config{}, nil)
	rec := env.do(t, http.MethodPost, "/v1/en/custom",
		`{"arabicText":"الحمد لله","translatedText":"Praise be to God","count":3,"type":"morning"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[store.CustomSupplication](t, rec)

	rec = env.do(t, http.MethodPost, "/v1/en/taps/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[store.TapResult](t, rec).Remaining)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/v1/en/custom/"+created.ID, "").Code)

	item := store.Item{Supplication: created.Supplication, IsCustom: true, Type: created.Type}
	assert.Equal(t, 3, env.server.tapCounter("en").Remaining(item))
}

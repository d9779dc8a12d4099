package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/daily-supplications/internal/kv"
)

type fakeClient struct {
	mu      sync.Mutex
	data    map[string]string
	setErr  error
	getErr  error
	closed  bool
	lastTTL time.Duration
}

func newFakeClient() *fakeClient {
	return &fakeClient{data: make(map[string]string)}
}

func (f *fakeClient) Get(_ context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return goredis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return goredis.NewStatusResult("", f.setErr)
	}
	f.data[key] = value.(string)
	f.lastTTL = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func TestNewRequiresAddr(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestStorePrefixesKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := newFakeClient()
	store := NewWithClient(fake, "supplications:")

	require.NoError(t, store.Set(ctx, "themePreference", "dark"))
	assert.Equal(t, "dark", fake.data["supplications:themePreference"])
	assert.Zero(t, fake.lastTTL)

	got, err := store.Get(ctx, "themePreference")
	require.NoError(t, err)
	assert.Equal(t, "dark", got)
}

func TestStoreMissingKey(t *testing.T) {
	t.Parallel()

	store := NewWithClient(newFakeClient(), "")
	_, err := store.Get(context.Background(), "soundEnabled")
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func TestStoreWrapsErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("READONLY")
	fake := newFakeClient()
	fake.setErr = boom
	fake.getErr = boom
	store := NewWithClient(fake, "")

	require.ErrorIs(t, store.Set(ctx, "k", "v"), boom)
	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, kv.ErrNotFound)
}

func TestStoreClose(t *testing.T) {
	t.Parallel()

	fake := newFakeClient()
	require.NoError(t, NewWithClient(fake, "").Close())
	assert.True(t, fake.closed)

	var nilStore *Store
	assert.NoError(t, nilStore.Close())
}

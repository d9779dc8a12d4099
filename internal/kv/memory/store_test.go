package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/daily-supplications/internal/kv"
)

func TestStoreGetMissing(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := s.Get(context.Background(), "absent")
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func TestStoreLastWriteWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "completedSupplications_en", `{"m1":true}`))
	require.NoError(t, s.Set(ctx, "completedSupplications_en", `{}`))

	got, err := s.Get(ctx, "completedSupplications_en")
	require.NoError(t, err)
	assert.Equal(t, `{}`, got)
	assert.Equal(t, 1, s.Len())
}

func TestStoreConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			_ = s.Set(ctx, key, "v")
			_, _ = s.Get(ctx, key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, s.Len())
}

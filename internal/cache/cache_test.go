package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("test")

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")

	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBool_LoadsOnceThenCaches(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("roles")
	calls := 0
	load := func(context.Context) (bool, error) {
		calls++
		return true, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Bool(ctx, c, "issuer:0xabc", time.Minute, load)
		require.NoError(t, err)
		require.True(t, v)
	}
	require.Equal(t, 1, calls)
}

func TestBool_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")
	boom := errors.New("rpc down")

	_, err := Bool(ctx, c, "k", time.Minute, func(context.Context) (bool, error) { return false, boom })
	require.ErrorIs(t, err, boom)

	v, err := Bool(ctx, c, "k", time.Minute, func(context.Context) (bool, error) { return true, nil })
	require.NoError(t, err)
	require.True(t, v)
}

func TestBool_NilClient(t *testing.T) {
	v, err := Bool(context.Background(), nil, "k", time.Minute, func(context.Context) (bool, error) { return true, nil })
	require.NoError(t, err)
	require.True(t, v)
}

package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("payload")
	require.NoError(t, store.Put(ctx, "b", data))
	data[0] = 'X'

	got, err := Get(ctx, store, "b")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got), "Put copies its input")

	w, err := store.Create(ctx, "a")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	_, err = store.Open(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late"))
	require.Error(t, err)

	blob, err := store.Open(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(8), blob.Size())

	r, err := blob.ReadRange(ctx, 2, 100)
	require.NoError(t, err)
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "reamed", string(rest))

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 6)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, store.Delete(ctx, "a"))
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)
}

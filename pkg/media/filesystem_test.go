package media

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStorePutGetDelete(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := "children_photos/3/portrait.jpg"

	err = store.Put(ctx, key, "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	rc, err := store.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilesystemStorePutReplaces(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := "children_photos/3/portrait.jpg"

	require.NoError(t, store.Put(ctx, key, "image/jpeg", strings.NewReader("old")))
	require.NoError(t, store.Put(ctx, key, "image/jpeg", strings.NewReader("new")))

	rc, err := store.Get(ctx, key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "new", string(data))
}

func TestFilesystemStoreDeleteMissingIsNoError(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "children_photos/none.jpg"))
}

func TestFilesystemStoreRejectsTraversal(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	err = store.Put(ctx, "../outside.txt", "text/plain", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = store.Get(ctx, "..")
	assert.Error(t, err)
}

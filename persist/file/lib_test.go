package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestFiles(t *testing.T) {
	dir := t.TempDir()

	p, err := NewPersistForPath(filepath.Join(dir, "nodes"))
	require.NoError(t, err)

	err = p.Store(ctx, "foo", []byte("hello"))
	require.NoError(t, err)
	loaded, err := p.Load(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), loaded)
}

func TestStoreKeepsExisting(t *testing.T) {
	p, err := NewPersistForPath(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, p.Store(ctx, "foo", []byte("first")))
	require.NoError(t, p.Store(ctx, "foo", []byte("second")))
	loaded, err := p.Load(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), loaded)

	entries, err := os.ReadDir(p.basepath)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoadMissing(t *testing.T) {
	p, err := NewPersistForPath(t.TempDir())
	require.NoError(t, err)

	_, err = p.Load(ctx, "nope")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

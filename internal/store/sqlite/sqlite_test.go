package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *KV {
	t.Helper()
	kv, err := Open(filepath.Join(t.TempDir(), "quill.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestGetSetDelete(t *testing.T) {
	kv := setup(t)

	_, ok := kv.Get("missing")
	assert.False(t, ok)

	require.NoError(t, kv.Set("k", "v"))
	got, ok := kv.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	// Upsert overwrites.
	require.NoError(t, kv.Set("k", "v2"))
	got, _ = kv.Get("k")
	assert.Equal(t, "v2", got)

	require.NoError(t, kv.Delete("k"))
	_, ok = kv.Get("k")
	assert.False(t, ok)
	assert.NoError(t, kv.Delete("k"))
}

func TestEmptyValueRoundTrip(t *testing.T) {
	kv := setup(t)
	require.NoError(t, kv.Set("k", ""))
	got, ok := kv.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "", got)
}

package mmap

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": [1]}`), 0o600))

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a": [1]}`, string(r.Bytes()))
	assert.Equal(t, 10, r.Len())
	if runtime.GOOS == "linux" || runtime.GOOS == "darwin" {
		assert.True(t, r.Mapped())
	}

	require.NoError(t, r.Close())
	assert.Nil(t, r.Bytes())
	require.NoError(t, r.Close())
}

func TestOpenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Mapped())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

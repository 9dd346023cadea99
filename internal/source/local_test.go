package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keenlabs/docvec/internal/config"
)

func TestLocalSourceListAndFetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bravo"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("alpha"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	src, err := New(config.SourceConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)

	entries, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a.md", entries[0].Name)
	require.Equal(t, "b.txt", entries[1].Name)
	require.EqualValues(t, 5, entries[0].Size)

	path, cleanup, err := src.Fetch(context.Background(), entries[1])
	require.NoError(t, err)
	defer cleanup()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "bravo", string(data))
}

func TestNewSourceUnknownType(t *testing.T) {
	_, err := New(config.SourceConfig{Type: "ftp"})
	require.Error(t, err)
}

func TestLocalSourceRequiresDir(t *testing.T) {
	_, err := New(config.SourceConfig{Type: "local", Data: map[string]interface{}{}})
	require.Error(t, err)
}

package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_FiltersByExtension(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "image.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "empty.txt"), nil, 0o644))

	files, errs := Walk(root, map[string]bool{"txt": true})

	var got []string
	for f := range files {
		got = append(got, f.RelPath)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, []string{"notes.txt"}, got)
}

func TestWalk_SkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "dep.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "guide.txt"), []byte("x"), 0o644))

	files, errs := Walk(root, map[string]bool{"txt": true})

	var got []string
	for f := range files {
		got = append(got, f.RelPath)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, []string{"docs/guide.txt"}, got)
}

func TestWalk_CustomIgnoreFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".cortexignore"), []byte("private\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "private"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "private", "secret.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "public.txt"), []byte("x"), 0o644))

	files, errs := Walk(root, map[string]bool{"txt": true})

	var got []string
	for f := range files {
		got = append(got, f.RelPath)
	}
	require.NoError(t, <-errs)
	assert.Equal(t, []string{"public.txt"}, got)
}

//go:build !windows

package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotatorx/pkg/contract"
)

// 数据集仓库：名称不得以绝对路径或 .. 逃逸根目录
func TestStoreRejectsEscapeUnix(t *testing.T) {
	root := t.TempDir()
	w, err := New(nil)
	require.NoError(t, err)
	store := w.WithRoot(filepath.Join(root, "datasets"))
	for _, id := range []string{"/etc/reviews.csv", "..", ".", "sub/../../reviews.csv"} {
		_, err := store.Path(contract.ArtifactID(id))
		assert.ErrorIs(t, err, contract.ErrPathInvalid, id)
	}
}

func TestPermFileUnix(t *testing.T) {
	root := t.TempDir()
	w, err := New(&Options{OutputDir: root, PermFile: 0o600})
	require.NoError(t, err)
	require.NoError(t, w.Write(t.Context(), "reviews.json", strings.NewReader("[]")))
	st, err := os.Stat(filepath.Join(root, "reviews.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

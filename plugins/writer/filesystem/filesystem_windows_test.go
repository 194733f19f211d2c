//go:build windows

package filesystem

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotatorx/pkg/contract"
)

// 数据集仓库：卷名与 .. 不得逃逸根目录
func TestStoreRejectsEscapeWindows(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	store := w.WithRoot(filepath.Join(t.TempDir(), "datasets"))
	for _, id := range []string{`C:\reviews.csv`, "..", ".", `sub\..\..\reviews.csv`} {
		_, err := store.Path(contract.ArtifactID(id))
		assert.ErrorIs(t, err, contract.ErrPathInvalid, id)
	}
}

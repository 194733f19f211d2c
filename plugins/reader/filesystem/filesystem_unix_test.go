//go:build !windows

package filesystem

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotatorx/pkg/contract"
)

// TestResolveSymlink 指向常规文件的符号链接可读；ID 保留链接路径
func TestResolveSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "t.csv")
	os.WriteFile(target, []byte("id\n"), 0o644)
	link := filepath.Join(dir, "l.csv")
	require.NoError(t, os.Symlink(target, link))
	id, err := New(nil).Resolve(link)
	require.NoError(t, err)
	assert.Equal(t, contract.NormalizeFileID(link), id)
}

// TestResolveSymlinkDangling 失效符号链接视为不存在
func TestResolveSymlinkDangling(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "dangling.csv")
	require.NoError(t, os.Symlink(filepath.Join(dir, "no"), link))
	_, err := New(nil).Resolve(link)
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

// TestResolveFifo 非常规文件被拒绝
func TestResolveFifo(t *testing.T) {
	fifo := filepath.Join(t.TempDir(), "fifo")
	if err := syscall.Mkfifo(fifo, 0o644); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}
	_, err := New(nil).Resolve(fifo)
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
}

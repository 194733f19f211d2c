package filesystem

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotatorx/pkg/contract"
)

// TestOpenSingleFile 读取单文件
func TestOpenSingleFile(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "reviews.csv")
	require.NoError(t, os.WriteFile(fp, []byte("id,text\n"), 0o644))
	r := New(nil)
	id, rc, err := r.Open(context.Background(), fp)
	require.NoError(t, err)
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "id,text\n", string(b))
	assert.Equal(t, contract.NormalizeFileID(fp), id)
}

// TestResolveMissing 缺失路径返回 ErrNotFound
func TestResolveMissing(t *testing.T) {
	r := New(nil)
	_, err := r.Resolve(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, contract.ErrNotFound)
	_, _, err = r.Open(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, contract.ErrNotFound)
	_, err = r.Resolve("")
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
}

// TestResolveDirectory 目录不是数据文件
func TestResolveDirectory(t *testing.T) {
	_, err := New(nil).Resolve(t.TempDir())
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
}

// TestOpenStdin "-" 读取 STDIN
func TestOpenStdin(t *testing.T) {
	old := os.Stdin
	pr, pw, _ := os.Pipe()
	os.Stdin = pr
	defer func() { os.Stdin = old }()
	go func() {
		pw.Write([]byte(`{"items":[]}`))
		pw.Close()
	}()
	id, b, err := New(nil).ReadAll(context.Background(), "-")
	require.NoError(t, err)
	assert.Equal(t, StdinID, id)
	assert.Equal(t, `{"items":[]}`, string(b))
}

// TestOpenStdinDisabled 关闭 STDIN 时 "-" 视为普通路径
func TestOpenStdinDisabled(t *testing.T) {
	off := false
	_, err := New(&Options{AllowStdin: &off}).Resolve("-")
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

// TestOpenCtxCancel 上下文取消
func TestOpenCtxCancel(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "a.json")
	os.WriteFile(fp, []byte("[]"), 0o644)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(nil).Open(ctx, fp)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expect ctx cancel, got %v", err)
	}
}

// TestLookupOrder csv 优先于 json
func TestLookupOrder(t *testing.T) {
	dir := t.TempDir()
	r := New(nil)
	exts := []string{".csv", ".json", ".xlsx"}

	_, err := r.Lookup(dir, "reviews", exts)
	assert.ErrorIs(t, err, contract.ErrNotFound)

	os.WriteFile(filepath.Join(dir, "reviews.json"), []byte("[]"), 0o644)
	p, err := r.Lookup(dir, "reviews", exts)
	require.NoError(t, err)
	assert.Equal(t, "reviews.json", filepath.Base(p))

	os.WriteFile(filepath.Join(dir, "reviews.csv"), []byte("id\n"), 0o644)
	p, err = r.Lookup(dir, "reviews", exts)
	require.NoError(t, err)
	assert.Equal(t, "reviews.csv", filepath.Base(p))

	_, err = r.Lookup(dir, "../reviews", exts)
	assert.ErrorIs(t, err, contract.ErrPathInvalid)
}

// TestNewBufferedCloserDefault bufSize<=0 时使用默认
func TestNewBufferedCloserDefault(t *testing.T) {
	r := io.NopCloser(strings.NewReader(""))
	bc := newBufferedCloser(r, 0)
	if bc.Reader == nil {
		t.Fatalf("nil reader")
	}
	bc.Close()
}

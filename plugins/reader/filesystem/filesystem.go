package filesystem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"annotatorx/pkg/contract"
)

// Options 为 FileSystem Reader 的可选配置（最小必要）。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// AllowStdin: 为 true 时路径 "-" 表示 STDIN。默认开启。
	AllowStdin *bool `json:"allow_stdin"`
}

// FileSystem 实现基于本地文件与 STDIN 的 Reader。
type FileSystem struct {
	bufSize    int
	allowStdin bool
}

// StdinID: 路径 "-" 对应的逻辑文件 ID。
const StdinID contract.FileID = "stdin"

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	const defaultBuf = 64 * 1024
	b := defaultBuf
	allow := true
	if opts != nil {
		if opts.BufSize > 0 {
			b = opts.BufSize
		}
		if opts.AllowStdin != nil {
			allow = *opts.AllowStdin
		}
	}
	return &FileSystem{bufSize: b, allowStdin: allow}
}

var _ contract.Reader = (*FileSystem)(nil)

// Resolve 检查 path 指向常规文件（跟随符号链接）。
// 不存在（含失效符号链接）返回 ErrNotFound；目录或设备等返回 ErrInvalidInput。
func (r *FileSystem) Resolve(path string) (contract.FileID, error) {
	if path == "-" && r.allowStdin {
		return StdinID, nil
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", contract.ErrInvalidInput)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", contract.ErrNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", contract.ErrInvalidInput, path)
	}
	return contract.NormalizeFileID(path), nil
}

// Open 解析并打开 path；调用方负责 Close。
func (r *FileSystem) Open(ctx context.Context, path string) (contract.FileID, io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return "", nil, ctx.Err()
	default:
	}
	id, err := r.Resolve(path)
	if err != nil {
		return "", nil, err
	}
	if id == StdinID {
		// STDIN 不由调用方关闭
		return id, newBufferedCloser(io.NopCloser(os.Stdin), r.bufSize), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("%w: %s", contract.ErrNotFound, path)
		}
		return "", nil, fmt.Errorf("open %s: %w", path, err)
	}
	return id, newBufferedCloser(f, r.bufSize), nil
}

// ReadAll 打开并读取全部内容。
func (r *FileSystem) ReadAll(ctx context.Context, path string) (contract.FileID, []byte, error) {
	id, rc, err := r.Open(ctx, path)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	return id, b, nil
}

// Lookup 在 dir 中按 exts 顺序查找首个存在的 <stem><ext>。均不存在时返回 ErrNotFound。
func (r *FileSystem) Lookup(dir, stem string, exts []string) (string, error) {
	if stem == "" || strings.ContainsAny(stem, `/\`) || stem == "." || stem == ".." {
		return "", fmt.Errorf("%w: dataset name %q", contract.ErrPathInvalid, stem)
	}
	for _, ext := range exts {
		p := filepath.Join(dir, stem+ext)
		if _, err := r.Resolve(p); err == nil {
			return p, nil
		} else if !errors.Is(err, contract.ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: dataset %s (%s) in %s", contract.ErrNotFound, stem, strings.Join(exts, ", "), dir)
}

// bufferedCloser 将 bufio.Reader 与底层 Closer 组合为 ReadCloser。
type bufferedCloser struct {
	*bufio.Reader
	c io.Closer
}

func newBufferedCloser(c io.ReadCloser, bufSize int) *bufferedCloser {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &bufferedCloser{Reader: bufio.NewReaderSize(c, bufSize), c: c}
}

func (b *bufferedCloser) Close() error { return b.c.Close() }

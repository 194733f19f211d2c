// Package textio 读取数据集文本：识别 BOM 并保证输出为合法 UTF-8。
package textio

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"annotatorx/pkg/contract"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ReadAll 读取全部内容并返回 UTF-8 字节。
//   - UTF-16 BOM：按 BOM 指示的字节序转码
//   - UTF-8 BOM：剥离
//   - 非法 UTF-8 字节返回 ErrDatasetFormat，不做替换（替换会改变标注结果）
func ReadAll(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(raw, bomUTF16LE) || bytes.HasPrefix(raw, bomUTF16BE) {
		out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), raw)
		if err != nil {
			return nil, fmt.Errorf("%w: utf-16: %v", contract.ErrDatasetFormat, err)
		}
		return out, nil
	}
	raw = bytes.TrimPrefix(raw, bomUTF8)
	if off := invalidAt(raw); off >= 0 {
		return nil, fmt.Errorf("%w: invalid UTF-8 at byte %d", contract.ErrDatasetFormat, off)
	}
	return raw, nil
}

// invalidAt 返回首个非法 UTF-8 序列的偏移；全部合法时返回 -1。
func invalidAt(b []byte) int {
	if utf8.Valid(b) {
		return -1
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

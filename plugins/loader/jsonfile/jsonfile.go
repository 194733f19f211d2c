package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"annotatorx/internal/textio"
	"annotatorx/pkg/contract"
)

// Options 为 JSON Loader 的可选配置。
type Options struct {
	// DataKey: 对象形态时承载记录列表的键，默认 "data"。
	DataKey string `json:"data_key"`
}

// Loader 接受两种形态：{"data": [...]} 或顶层数组 [...]；数组元素必须是对象。
type Loader struct {
	dataKey string
}

func New(opts *Options) *Loader {
	key := "data"
	if opts != nil && opts.DataKey != "" {
		key = opts.DataKey
	}
	return &Loader{dataKey: key}
}

var _ contract.Loader = (*Loader)(nil)

func (l *Loader) Load(ctx context.Context, r io.Reader) ([]contract.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := textio.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("%w: invalid JSON document", contract.ErrDatasetFormat)
	}

	var list []json.RawMessage
	switch firstByte(b) {
	case '[':
		if err := json.Unmarshal(b, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", contract.ErrDatasetFormat, err)
		}
	case '{':
		var top map[string]json.RawMessage
		if err := json.Unmarshal(b, &top); err != nil {
			return nil, fmt.Errorf("%w: %v", contract.ErrDatasetFormat, err)
		}
		raw, ok := top[l.dataKey]
		if !ok || firstByte(raw) != '[' {
			return nil, fmt.Errorf("%w: unsupported JSON dataset structure (want a list or an object with a %q list)", contract.ErrDatasetFormat, l.dataKey)
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", contract.ErrDatasetFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported JSON dataset structure (want a list or an object with a %q list)", contract.ErrDatasetFormat, l.dataKey)
	}

	out := make([]contract.Record, 0, len(list))
	for i, raw := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if firstByte(raw) != '{' {
			return nil, fmt.Errorf("%w: record %d is not an object", contract.ErrDatasetFormat, i)
		}
		var rec contract.Record
		if err := rec.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", contract.ErrDatasetFormat, i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func firstByte(b []byte) byte {
	b = bytes.TrimLeft(b, " \t\r\n")
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

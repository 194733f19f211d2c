package jsonindent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"annotatorx/pkg/contract"
)

// Options 为 JSON 导出的可选配置。
type Options struct {
	// Indent: 缩进字符串，默认两个空格。
	Indent string `json:"indent"`
}

// Exporter 输出带缩进的完整文档（不做 HTML 转义，末尾换行）。
type Exporter struct {
	indent string
}

func New(opts *Options) *Exporter {
	ind := "  "
	if opts != nil && opts.Indent != "" {
		ind = opts.Indent
	}
	return &Exporter{indent: ind}
}

var _ contract.Exporter = (*Exporter)(nil)

func (e *Exporter) Ext() string { return ".json" }

func (e *Exporter) Encode(ctx context.Context, set contract.AnnotationSet, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", e.indent)
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

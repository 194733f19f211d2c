package contract

import (
	"context"
	"io"
)

// Exporter: 将已校验的 AnnotationSet 编码为目标格式字节流。
// 约束：只编码不落盘；落盘由 Writer 负责。
type Exporter interface {
	Encode(ctx context.Context, set AnnotationSet, w io.Writer) error
	// Ext 返回默认扩展名（含点），用于推导输出路径。
	Ext() string
}

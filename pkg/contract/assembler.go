package contract

import "context"

// DefaultSource: 构建条目 meta.source 的默认来源标记。
const DefaultSource = "annotatorx.simple_labeler"

// BuildOptions: 构建参数。
type BuildOptions struct {
	LabelField string
	TextField  string
	Seed       int64
	// Source: meta.source；空则使用 DefaultSource。
	Source string
	// Progress: 可选进度回调（done,total）。
	Progress func(done, total int)
}

// Builder: 将 Record 序列包装为 AnnotationSet。
// 约束：
//  1. Items 顺序与输入一致；
//  2. 同一输入与参数产生相同结构；
//  3. 不做 I/O。
type Builder interface {
	Build(ctx context.Context, records []Record, opts BuildOptions) (AnnotationSet, error)
}

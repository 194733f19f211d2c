package contract

import (
	"context"
	"io"
)

// Loader: 将单个数据集文件解码为有序 Record 序列。
// 约束：
//  1. 只读，不做标注；
//  2. 记录顺序与输入一致；
//  3. 结构不合法返回 ErrDatasetFormat（包装具体原因）。
type Loader interface {
	Load(ctx context.Context, r io.Reader) ([]Record, error)
}

// Truncate 保留前 limit 条；limit<=0 表示不截断。
func Truncate(records []Record, limit int) []Record {
	if limit <= 0 || len(records) <= limit {
		return records
	}
	return records[:limit]
}
